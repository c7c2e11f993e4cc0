package tryon

import (
	"golang.org/x/text/language"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

// MessageKey names a piece of user-facing copy.
type MessageKey string

const (
	MsgQueued            MessageKey = "queued"
	MsgRunning           MessageKey = "running"
	MsgSucceeded         MessageKey = "succeeded"
	MsgProcessing        MessageKey = "processing"
	MsgToastStarted      MessageKey = "toast_started"
	MsgToastCompleted    MessageKey = "toast_completed"
	MsgToastFailed       MessageKey = "toast_failed"
	MsgToastSubmitFailed MessageKey = "toast_submit_failed"
)

var catalog = map[string]map[MessageKey]string{
	"en": {
		MsgQueued:            "Your try-on request is in queue...",
		MsgRunning:           "AI is processing your try-on...",
		MsgSucceeded:         "Try-on completed successfully!",
		MsgProcessing:        "Processing...",
		MsgToastStarted:      "Visualization started!",
		MsgToastCompleted:    "Virtual try-on completed!",
		MsgToastFailed:       "Virtual try-on failed. Please try again.",
		MsgToastSubmitFailed: "Failed to start visualization",
	},
	"id": {
		MsgQueued:            "Permintaan try-on Anda sedang dalam antrean...",
		MsgRunning:           "AI sedang memproses try-on Anda...",
		MsgSucceeded:         "Try-on berhasil diselesaikan!",
		MsgProcessing:        "Memproses...",
		MsgToastStarted:      "Visualisasi dimulai!",
		MsgToastCompleted:    "Virtual try-on selesai!",
		MsgToastFailed:       "Virtual try-on gagal. Silakan coba lagi.",
		MsgToastSubmitFailed: "Gagal memulai visualisasi",
	},
}

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.Indonesian})

// MatchLocale maps a free-form locale or Accept-Language value onto a
// supported catalog language.
func MatchLocale(locale string) string {
	tag, _ := language.MatchStrings(localeMatcher, locale)
	base, _ := tag.Base()
	if _, ok := catalog[base.String()]; ok {
		return base.String()
	}
	return "en"
}

// Message returns the localized copy for key.
func Message(locale string, key MessageKey) string {
	if msg, ok := catalog[MatchLocale(locale)][key]; ok {
		return msg
	}
	return catalog["en"][key]
}

// StatusMessage returns the headline shown next to a job snapshot. Failed
// jobs show the backend message, or DefaultFailureMessage when it is blank.
func StatusMessage(locale string, job *domain.TryOnJob) string {
	if job == nil {
		return ""
	}
	switch job.State.(type) {
	case domain.Queued:
		return Message(locale, MsgQueued)
	case domain.Running:
		return Message(locale, MsgRunning)
	case domain.Succeeded:
		return Message(locale, MsgSucceeded)
	case domain.Failed:
		msg, _ := job.ErrorMessage()
		return msg
	default:
		return Message(locale, MsgProcessing)
	}
}
