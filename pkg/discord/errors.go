package discord

import "luckyspot/internal/domain"

const genericErrorKey = "error.generic"

// ErrorKey maps err to its i18n key: "error.<code>" for domain errors,
// "error.generic" otherwise.
func ErrorKey(err error) string {
	if err == nil {
		return ""
	}
	if code := domain.Code(err); code != "" {
		return "error." + code
	}
	return genericErrorKey
}
