package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"luckyspot/internal/application"
	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/feed"
	"luckyspot/internal/infrastructure/i18n"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/viewmodel"
	pkgdiscord "luckyspot/pkg/discord"
)

type fakeEditor struct {
	mu        sync.Mutex
	edits     []*discordgo.WebhookEdit
	followups []string
}

func (f *fakeEditor) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeEditor) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, params *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, params.Content)
	return &discordgo.Message{}, nil
}

// lastEmbed returns the description and footer of the latest render.
func (f *fakeEditor) lastEmbed() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return "", ""
	}
	embed := (*f.edits[len(f.edits)-1].Embeds)[0]
	footer := ""
	if embed.Footer != nil {
		footer = embed.Footer.Text
	}
	return embed.Description, footer
}

func (f *fakeEditor) Followups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.followups...)
}

var _ = Describe("panel", func() {
	var (
		ctx    context.Context
		tr     *i18n.Translator
		deps   viewmodel.Deps
		editor *fakeEditor
		now    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		tr = i18n.NewTranslator("en")
		store := memstore.New(feed.NewLocal())
		cfg := application.Config{MaxAttempts: 3, InvitationTTL: time.Hour}
		entrants := application.NewEntrantService(store, nil, cfg)
		deps = viewmodel.Deps{
			Query:      application.NewQueryEngine(store, nil),
			Entrants:   entrants,
			Promotions: application.NewPromotionService(store, nil, nil, cfg),
			T:          tr,
			Locale:     "en",
		}
		_, err := entrants.Join(ctx, "evt-1", "U1", "Ada", "")
		Expect(err).NotTo(HaveOccurred())
		editor = &fakeEditor{}
		now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	})

	open := func() *panel {
		vm := viewmodel.New(ctx, deps, "evt-1", domain.FilterSelected)
		p := newPanel(vm, tr, editor, &discordgo.Interaction{}, "owner", "en", now)
		go p.run()
		return p
	}

	It("renders the list and count as they change", func() {
		p := open()
		defer p.close()

		Eventually(func() string { _, footer := editor.lastEmbed(); return footer }).Should(Equal("Selected: 0"))

		Eventually(p.vm.RequestPromotion()).Should(Receive())
		Eventually(func() string { d, _ := editor.lastEmbed(); return d }).Should(ContainSubstring("**Ada**"))
		Eventually(func() string { _, footer := editor.lastEmbed(); return footer }).Should(Equal("Selected: 1"))
		Eventually(editor.Followups).Should(ContainElement("Ada was drawn from the waiting list"))
	})

	It("expires with the interaction token", func() {
		registry := newPanelRegistry()
		p := open()
		registry.add(p)

		Expect(registry.expire(now.Add(time.Minute))).To(Equal(0))
		Expect(registry.expire(now.Add(panelTTL))).To(Equal(1))
		Expect(registry.size()).To(Equal(0))
		Eventually(p.done).Should(BeClosed())
	})

	It("closes every panel on shutdown", func() {
		registry := newPanelRegistry()
		a, b := open(), open()
		registry.add(a)
		registry.add(b)
		Expect(a.id).NotTo(Equal(b.id))

		registry.closeAll()
		Expect(registry.size()).To(Equal(0))
		Expect(a.done).To(BeClosed())
		Expect(b.done).To(BeClosed())
	})
})

var _ = Describe("panelComponents", func() {
	tr := i18n.NewTranslator("en")

	It("marks the current filter and offers only pending entrants for cancel", func() {
		view := pkgdiscord.PanelView{
			Filter: domain.FilterAll,
			Entrants: []entities.Entrant{
				{ID: "E1", UID: "U1", Name: "Ada", Status: domain.StatusPending},
				{ID: "E2", UID: "U2", Status: domain.StatusConfirmed},
			},
		}
		rows := panelComponents(tr, "en", "p1", view)
		Expect(rows).To(HaveLen(3))

		filter := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
		Expect(filter.CustomID).To(Equal("ls_filter:p1"))
		Expect(filter.Options).To(HaveLen(len(domain.Filters)))
		for _, o := range filter.Options {
			Expect(o.Default).To(Equal(o.Value == "all"))
		}

		cancel := rows[1].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
		Expect(cancel.CustomID).To(Equal("ls_cancel:p1"))
		Expect(cancel.Options).To(Equal([]discordgo.SelectMenuOption{{Label: "Ada", Value: "E1"}}))

		draw := rows[2].(discordgo.ActionsRow).Components[0].(discordgo.Button)
		Expect(draw.CustomID).To(Equal("ls_draw:p1"))
	})

	It("drops the cancel menu when nothing is pending", func() {
		rows := panelComponents(tr, "en", "p1", pkgdiscord.PanelView{})
		Expect(rows).To(HaveLen(2))
	})

	It("caps the cancel menu", func() {
		var list []entities.Entrant
		for range 30 {
			list = append(list, entities.Entrant{ID: "E", UID: "U", Status: domain.StatusPending})
		}
		Expect(cancelOptions(list)).To(HaveLen(maxSelectOptions))
	})
})

var _ = DescribeTable("parseCustomID",
	func(id, kind, panelID, arg string, ok bool) {
		k, p, a, valid := parseCustomID(id)
		Expect(valid).To(Equal(ok))
		Expect(k).To(Equal(kind))
		Expect(p).To(Equal(panelID))
		Expect(a).To(Equal(arg))
	},
	Entry("kind and panel", "ls_draw:abc", "ls_draw", "abc", "", true),
	Entry("with argument", "ls_cancel_modal:abc:E1", "ls_cancel_modal", "abc", "E1", true),
	Entry("argument keeps colons", "ls_cancel_modal:abc:E1:x", "ls_cancel_modal", "abc", "E1:x", true),
	Entry("no panel", "ls_draw", "", "", "", false),
	Entry("empty panel", "ls_draw:", "", "", "", false),
)

var _ = Describe("customID", func() {
	It("round-trips through parseCustomID", func() {
		kind, panelID, arg, ok := parseCustomID(customID(idCancelModal, "abc", "E1"))
		Expect(ok).To(BeTrue())
		Expect([]string{kind, panelID, arg}).To(Equal([]string{idCancelModal, "abc", "E1"}))
	})
})
