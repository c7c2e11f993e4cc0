package tryon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

func TestMatchLocale(t *testing.T) {
	assert.Equal(t, "en", MatchLocale(""))
	assert.Equal(t, "en", MatchLocale("en-US"))
	assert.Equal(t, "id", MatchLocale("id-ID,en;q=0.8"))
	assert.Equal(t, "en", MatchLocale("fr-FR"))
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "", StatusMessage("en", nil))
	assert.Equal(t, "Your try-on request is in queue...",
		StatusMessage("en", &domain.TryOnJob{ID: "j", State: domain.Queued{}}))
	assert.Equal(t, "AI sedang memproses try-on Anda...",
		StatusMessage("id", &domain.TryOnJob{ID: "j", State: domain.Running{}}))
	assert.Equal(t, "model overloaded",
		StatusMessage("id", &domain.TryOnJob{ID: "j", State: domain.Failed{Message: "model overloaded"}}))
	assert.Equal(t, "Virtual try-on completed!", Message("en", MsgToastCompleted))
}
