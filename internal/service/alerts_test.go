package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/notify"
	"github.com/mhartwig/schengen-keeper/internal/repo"
	"github.com/mhartwig/schengen-keeper/internal/service"
)

// stubCompliance returns a fixed window regardless of the reference date.
type stubCompliance struct {
	window domain.ComplianceWindow
	err    error
}

func (s *stubCompliance) WindowAt(_ context.Context, _ time.Time) (domain.ComplianceWindow, error) {
	return s.window, s.err
}

// memAlertState is an in-memory AlertStateRepo.
type memAlertState struct {
	settings domain.AlertSettings
	saved    int
}

func (m *memAlertState) Get(_ context.Context) (domain.AlertSettings, error) {
	return m.settings, nil
}

func (m *memAlertState) Save(_ context.Context, s domain.AlertSettings) (domain.AlertSettings, error) {
	s.UpdatedAt = time.Now()
	m.settings = s
	m.saved++
	return s, nil
}

var _ repo.AlertStateRepo = (*memAlertState)(nil)

// recordingPublisher captures published events; fail makes every publish error.
type recordingPublisher struct {
	events []notify.AlertStatusChanged
	fail   bool
}

func (p *recordingPublisher) PublishAlert(_ context.Context, e notify.AlertStatusChanged) error {
	if p.fail {
		return assert.AnError
	}
	p.events = append(p.events, e)
	return nil
}

func windowWith(status domain.ComplianceStatus, used int) domain.ComplianceWindow {
	return domain.ComplianceWindow{
		DaysUsed:      used,
		DaysRemaining: max(0, 90-used),
		Status:        status,
	}
}

// ---- Evaluate --------------------------------------------------------------

func TestAlertsService_Evaluate_FirstTransition(t *testing.T) {
	state := &memAlertState{settings: domain.DefaultAlertSettings()}
	pub := &recordingPublisher{}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusCaution, 62)}, state, pub)

	event, err := svc.Evaluate(context.Background())

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.StatusCaution, event.ToStatus)
	assert.Equal(t, 62, event.DaysUsed)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.StatusCaution, state.settings.LastNotifiedStatus)
}

func TestAlertsService_Evaluate_SameStatusIsQuiet(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{
		Enabled:            true,
		LastNotifiedStatus: domain.StatusCaution,
	}}
	pub := &recordingPublisher{}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusCaution, 65)}, state, pub)

	event, err := svc.Evaluate(context.Background())

	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, pub.events)
	assert.Zero(t, state.saved, "no state write when nothing changed")
}

func TestAlertsService_Evaluate_Disabled(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{Enabled: false}}
	pub := &recordingPublisher{}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusDanger, 88)}, state, pub)

	event, err := svc.Evaluate(context.Background())

	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, pub.events)
}

func TestAlertsService_Evaluate_ImprovementSuppressed(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{
		Enabled:             true,
		NotifyOnImprovement: false,
		LastNotifiedStatus:  domain.StatusWarning,
	}}
	pub := &recordingPublisher{}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusCaution, 65)}, state, pub)

	event, err := svc.Evaluate(context.Background())

	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Empty(t, pub.events)
	// The stored status still advances so a later worsening from caution fires.
	assert.Equal(t, domain.StatusCaution, state.settings.LastNotifiedStatus)
}

func TestAlertsService_Evaluate_ImprovementNotified(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{
		Enabled:             true,
		NotifyOnImprovement: true,
		LastNotifiedStatus:  domain.StatusWarning,
	}}
	pub := &recordingPublisher{}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusCaution, 65)}, state, pub)

	event, err := svc.Evaluate(context.Background())

	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, domain.StatusWarning, event.FromStatus)
	assert.Equal(t, domain.StatusCaution, event.ToStatus)
}

func TestAlertsService_Evaluate_PublishFailureKeepsStatus(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{
		Enabled:            true,
		LastNotifiedStatus: domain.StatusSafe,
	}}
	pub := &recordingPublisher{fail: true}
	svc := service.NewAlertsService(&stubCompliance{window: windowWith(domain.StatusWarning, 78)}, state, pub)

	_, err := svc.Evaluate(context.Background())

	assert.Error(t, err)
	// Stored status untouched; the next evaluation retries the transition.
	assert.Equal(t, domain.StatusSafe, state.settings.LastNotifiedStatus)
}

// ---- Settings --------------------------------------------------------------

func TestAlertsService_UpdateSettings_PreservesLastNotified(t *testing.T) {
	state := &memAlertState{settings: domain.AlertSettings{
		Enabled:            true,
		LastNotifiedStatus: domain.StatusWarning,
	}}
	svc := service.NewAlertsService(&stubCompliance{}, state, &recordingPublisher{})

	saved, err := svc.UpdateSettings(context.Background(), domain.AlertSettings{
		Enabled:             false,
		NotifyOnImprovement: true,
		LastNotifiedStatus:  domain.StatusSafe, // must be ignored
	})

	require.NoError(t, err)
	assert.False(t, saved.Enabled)
	assert.True(t, saved.NotifyOnImprovement)
	assert.Equal(t, domain.StatusWarning, saved.LastNotifiedStatus, "last notified status is server-owned")
}
