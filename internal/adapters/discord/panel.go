package discord

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/output"
	"luckyspot/internal/viewmodel"
	pkgdiscord "luckyspot/pkg/discord"
)

// Interaction tokens stay valid for 15 minutes.
const panelTTL = 14 * time.Minute

// Custom ID kinds. A custom ID reads "<kind>:<panel>[:<arg>]".
const (
	idFilter      = "ls_filter"
	idCancel      = "ls_cancel"
	idCancelModal = "ls_cancel_modal"
	idDraw        = "ls_draw"
)

// Select menus hold at most 25 options.
const maxSelectOptions = 25

type interactionEditor interface {
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// panel is one organizer's live view of an event, rendered into the
// ephemeral reply of their /entrants command.
type panel struct {
	id          string
	ownerID     string
	locale      string
	createdAt   time.Time
	vm          *viewmodel.EntrantList
	t           output.T
	editor      interactionEditor
	interaction *discordgo.Interaction
	done        chan struct{}
	closeOnce   sync.Once
}

func newPanel(vm *viewmodel.EntrantList, t output.T, editor interactionEditor, interaction *discordgo.Interaction, ownerID, locale string, now time.Time) *panel {
	return &panel{
		id:          strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		ownerID:     ownerID,
		locale:      locale,
		createdAt:   now,
		vm:          vm,
		t:           t,
		editor:      editor,
		interaction: interaction,
		done:        make(chan struct{}),
	}
}

// run re-renders the panel on every view-model change and posts toasts as
// ephemeral followups. It returns once the view-model is closed.
func (p *panel) run() {
	defer close(p.done)

	entrants, stopEntrants := p.vm.Entrants.Subscribe()
	defer stopEntrants()
	counts, stopCounts := p.vm.CountLabel.Subscribe()
	defer stopCounts()
	loading, stopLoading := p.vm.Loading.Subscribe()
	defer stopLoading()
	toasts, stopToasts := p.vm.Toast.Subscribe()
	defer stopToasts()

	view := pkgdiscord.PanelView{EventID: p.vm.EventID(), Loading: true}
	for {
		select {
		case list, ok := <-entrants:
			if !ok {
				return
			}
			view.Entrants = list
		case label, ok := <-counts:
			if !ok {
				return
			}
			view.CountLabel = label
		case l, ok := <-loading:
			if !ok {
				return
			}
			view.Loading = l
		case msg, ok := <-toasts:
			if !ok {
				return
			}
			if msg != "" {
				p.followup(msg)
			}
			continue
		}
		view.Filter = p.vm.Filter()
		p.render(view)
	}
}

func (p *panel) render(view pkgdiscord.PanelView) {
	embeds := []*discordgo.MessageEmbed{pkgdiscord.BuildPanelEmbed(p.t, p.locale, view)}
	components := panelComponents(p.t, p.locale, p.id, view)
	if _, err := p.editor.InteractionResponseEdit(p.interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		slog.Warn("discord: panel refresh failed", "panel", p.id, "event_id", view.EventID, "error", err)
	}
}

func (p *panel) followup(msg string) {
	if _, err := p.editor.FollowupMessageCreate(p.interaction, false, &discordgo.WebhookParams{
		Content: msg,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		slog.Warn("discord: toast followup failed", "panel", p.id, "error", err)
	}
}

func (p *panel) expired(now time.Time) bool {
	return now.Sub(p.createdAt) >= panelTTL
}

// close tears the view-model down and waits for the render loop.
func (p *panel) close() {
	p.closeOnce.Do(p.vm.Close)
	<-p.done
}

// panelComponents builds the filter select, the cancel select (pending
// entrants of the current list only) and the draw button.
func panelComponents(t output.T, locale, panelID string, view pkgdiscord.PanelView) []discordgo.MessageComponent {
	filterOptions := make([]discordgo.SelectMenuOption, 0, len(domain.Filters))
	for _, f := range domain.Filters {
		filterOptions = append(filterOptions, discordgo.SelectMenuOption{
			Label:   t.T(locale, pkgdiscord.FilterKey(f), nil),
			Value:   f.String(),
			Default: f == view.Filter,
		})
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    customID(idFilter, panelID),
				Placeholder: t.T(locale, "panel.filter_placeholder", nil),
				Options:     filterOptions,
			},
		}},
	}

	if cancelOptions := cancelOptions(view.Entrants); len(cancelOptions) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    customID(idCancel, panelID),
				Placeholder: t.T(locale, "panel.cancel_placeholder", nil),
				Options:     cancelOptions,
			},
		}})
	}

	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    t.T(locale, "panel.draw_button", nil),
			Style:    discordgo.PrimaryButton,
			CustomID: customID(idDraw, panelID),
		},
	}})
	return rows
}

func cancelOptions(list []entities.Entrant) []discordgo.SelectMenuOption {
	var options []discordgo.SelectMenuOption
	for _, e := range list {
		if e.Status != domain.StatusPending {
			continue
		}
		if len(options) == maxSelectOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: e.DisplayName(),
			Value: e.ID,
		})
	}
	return options
}

func customID(kind, panelID string, args ...string) string {
	return strings.Join(append([]string{kind, panelID}, args...), ":")
}

func parseCustomID(id string) (kind, panelID, arg string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		arg = parts[2]
	}
	return parts[0], parts[1], arg, true
}

type panelRegistry struct {
	mu     sync.Mutex
	panels map[string]*panel
}

func newPanelRegistry() *panelRegistry {
	return &panelRegistry{panels: make(map[string]*panel)}
}

func (r *panelRegistry) add(p *panel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panels[p.id] = p
}

func (r *panelRegistry) get(id string) (*panel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.panels[id]
	return p, ok
}

func (r *panelRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}

// expire closes and forgets every panel older than panelTTL.
func (r *panelRegistry) expire(now time.Time) int {
	r.mu.Lock()
	var stale []*panel
	for id, p := range r.panels {
		if p.expired(now) {
			stale = append(stale, p)
			delete(r.panels, id)
		}
	}
	r.mu.Unlock()

	for _, p := range stale {
		p.close()
	}
	return len(stale)
}

func (r *panelRegistry) closeAll() {
	r.mu.Lock()
	all := make([]*panel, 0, len(r.panels))
	for id, p := range r.panels {
		all = append(all, p)
		delete(r.panels, id)
	}
	r.mu.Unlock()

	for _, p := range all {
		p.close()
	}
}
