package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naareman/UnlockEgypt-sub000/internal/domain/shared"
)

func TestAwardScholarBadge_Idempotent(t *testing.T) {
	s := NewState()

	assert.True(t, s.AwardScholarBadge("great_pyramid"))
	assert.Equal(t, PointsScholarBadge, s.TotalPoints.Int())
	assert.True(t, s.HasScholarBadge("great_pyramid"))

	// Second award is a no-op, no double credit.
	assert.False(t, s.AwardScholarBadge("great_pyramid"))
	assert.Equal(t, PointsScholarBadge, s.TotalPoints.Int())
}

func TestRecordVerifiedVisit(t *testing.T) {
	s := NewState()
	now := time.Now().UTC()

	s.RecordVerifiedVisit("giza", now)

	assert.True(t, s.HasExplorerBadge("giza"))
	assert.True(t, s.IsFullyVerified("giza"))
	assert.False(t, s.IsSelfReported("giza"))
	assert.Equal(t, PointsVerifiedVisit, s.TotalPoints.Int())
	assert.Equal(t, now, s.VerifiedVisits["giza"])
}

func TestSelfReportThenUpgrade_TotalsFifty(t *testing.T) {
	s := NewState()
	now := time.Now().UTC()

	s.RecordSelfReportedVisit("luxor", now)
	assert.True(t, s.HasExplorerBadge("luxor"))
	assert.True(t, s.IsSelfReported("luxor"))
	assert.Equal(t, PointsSelfReportedVisit, s.TotalPoints.Int())

	s.UpgradeSelfReportedVisit("luxor", now.Add(time.Hour))
	assert.True(t, s.IsFullyVerified("luxor"))
	assert.False(t, s.IsSelfReported("luxor"))

	// 30 + 20: the two paths converge on the verified-visit total.
	assert.Equal(t, PointsVerifiedVisit, s.TotalPoints.Int())
}

func TestRevisitCooldownRemaining(t *testing.T) {
	s := NewState()
	now := time.Now().UTC()

	s.RecordVerifiedVisit("karnak", now)

	assert.Greater(t, s.RevisitCooldownRemaining("karnak", now.Add(time.Hour)), time.Duration(0))
	assert.Equal(t, time.Duration(0), s.RevisitCooldownRemaining("karnak", now.Add(RevisitCooldown+time.Minute)))
	assert.Equal(t, time.Duration(0), s.RevisitCooldownRemaining("abu_simbel", now))
}

func TestRecordPlaceDiscovery_Cooldown(t *testing.T) {
	s := NewState()
	now := time.Now().UTC()

	assert.True(t, s.RecordPlaceDiscovery("valley_kings", now))
	assert.Equal(t, PointsPlaceDiscovery, s.TotalPoints.Int())

	// Within cooldown: no re-reward.
	assert.False(t, s.RecordPlaceDiscovery("valley_kings", now.Add(24*time.Hour)))
	assert.Equal(t, PointsPlaceDiscovery, s.TotalPoints.Int())

	// After cooldown: rewarded again.
	assert.True(t, s.RecordPlaceDiscovery("valley_kings", now.Add(DiscoveryCooldown+time.Hour)))
	assert.Equal(t, 2*PointsPlaceDiscovery, s.TotalPoints.Int())
}

func TestRecordCorrectQuiz_Idempotent(t *testing.T) {
	s := NewState()

	assert.True(t, s.RecordCorrectQuiz("q_khufu_3"))
	assert.False(t, s.RecordCorrectQuiz("q_khufu_3"))
	assert.Equal(t, PointsQuizCorrect, s.TotalPoints.Int())
}

func TestUnlockAchievement_PaysOnce(t *testing.T) {
	s := NewState()
	now := time.Now().UTC()

	assert.True(t, s.UnlockAchievement("first_discovery", 100, now))
	assert.Equal(t, 100, s.TotalPoints.Int())

	assert.False(t, s.UnlockAchievement("first_discovery", 100, now.Add(time.Minute)))
	assert.Equal(t, 100, s.TotalPoints.Int())
	assert.Equal(t, now, s.Achievements["first_discovery"])
}

func TestToggleFavorite(t *testing.T) {
	s := NewState()

	assert.True(t, s.ToggleFavorite("giza"))
	assert.True(t, s.FavoriteSites["giza"])
	assert.False(t, s.ToggleFavorite("giza"))
	assert.False(t, s.FavoriteSites["giza"])
}

func TestValidate_SelfReportedSubset(t *testing.T) {
	s := NewState()
	s.SelfReportedSites["giza"] = true // no explorer badge

	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := NewState()
	now := time.Now().UTC().Truncate(time.Second)
	s.AwardScholarBadge("great_pyramid")
	s.RecordVerifiedVisit("giza", now)
	s.RecordSelfReportedVisit("luxor", now)
	s.RecordCorrectQuiz("q_khufu_3")
	s.RecordPlaceDiscovery("karnak", now)
	s.UnlockAchievement("first_discovery", 100, now)
	s.ToggleFavorite("abu_simbel")

	blobs, err := Encode(s)
	require.NoError(t, err)
	assert.Len(t, blobs, len(AllKeys()))

	decoded, err := Decode(blobs)
	require.NoError(t, err)

	assert.Equal(t, s.TotalPoints, decoded.TotalPoints)
	assert.True(t, decoded.HasScholarBadge("great_pyramid"))
	assert.True(t, decoded.IsFullyVerified("giza"))
	assert.True(t, decoded.IsSelfReported("luxor"))
	assert.True(t, decoded.CompletedQuizzes["q_khufu_3"])
	assert.True(t, decoded.HasAchievement("first_discovery"))
	assert.True(t, decoded.FavoriteSites["abu_simbel"])
	assert.Equal(t, now, decoded.VerifiedVisits["giza"])
	require.NoError(t, decoded.Validate())
}

func TestDecode_EmptyBlobsIsFreshState(t *testing.T) {
	s, err := Decode(map[string][]byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalPoints.Int())
	assert.Empty(t, s.ExplorerBadges)
}

func TestDecode_DropsOrphanSelfReports(t *testing.T) {
	blobs := map[string][]byte{
		KeySelfReported: []byte(`["giza"]`),
	}
	s, err := Decode(blobs)
	require.NoError(t, err)
	assert.False(t, s.IsSelfReported("giza"))
	require.NoError(t, s.Validate())
}

func TestCooldownDaysRemaining_RoundsUp(t *testing.T) {
	assert.Equal(t, 0, CooldownDaysRemaining(0))
	assert.Equal(t, 1, CooldownDaysRemaining(3*time.Hour))
	assert.Equal(t, 2, CooldownDaysRemaining(25*time.Hour))
	assert.Equal(t, 30, CooldownDaysRemaining(30*24*time.Hour))
}
