package notification

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizclient/internal/api/apierr"
	"github.com/mcoot/quizclient/internal/dependencies/mocks"
	"github.com/mcoot/quizclient/internal/model"
	"github.com/mcoot/quizclient/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, testutil.NopLogger())
}

func (s *ServiceSuite) ids() []int64 {
	var ids []int64
	for _, n := range s.service.Notifications() {
		ids = append(ids, n.ID)
	}
	return ids
}

// AddNotification tests

func (s *ServiceSuite) TestIDsStartAtOneAndIncrease() {
	a := s.service.AddNotification("a", model.NotificationInfo, 0)
	b := s.service.AddNotification("b", model.NotificationInfo, 0)
	c := s.service.AddNotification("c", model.NotificationInfo, 0)

	s.Equal([]int64{1, 2, 3}, []int64{a, b, c})
	s.Equal([]int64{1, 2, 3}, s.ids())
}

func (s *ServiceSuite) TestIDsAreNeverReused() {
	a := s.service.AddNotification("a", model.NotificationInfo, 0)
	s.service.RemoveNotification(a)
	s.service.ClearAll()

	b := s.service.AddNotification("b", model.NotificationInfo, 0)
	s.Greater(b, a)
}

func (s *ServiceSuite) TestAddRecordsFields() {
	s.service.AddNotification("Bonjour", model.NotificationWarning, 3*time.Second)

	list := s.service.Notifications()
	s.Require().Len(list, 1)
	s.Equal("Bonjour", list[0].Message)
	s.Equal(model.NotificationWarning, list[0].Kind)
	s.Equal(3*time.Second, list[0].Duration)
	s.Equal(s.clock.Now(), list[0].CreatedAt)
}

// Expiry tests

func (s *ServiceSuite) TestExpiresAtExactlyDuration() {
	s.service.AddNotification("x", model.NotificationInfo, 1000*time.Millisecond)

	s.clock.Advance(999 * time.Millisecond)
	s.Len(s.service.Notifications(), 1)

	s.clock.Advance(time.Millisecond)
	s.Empty(s.service.Notifications())
}

func (s *ServiceSuite) TestZeroDurationIsPermanent() {
	s.service.AddNotification("x", model.NotificationInfo, 0)

	s.clock.Advance(24 * time.Hour)

	s.Len(s.service.Notifications(), 1)
	s.Equal(0, s.clock.PendingTimers())
}

func (s *ServiceSuite) TestExpiryKeepsOthersInOrder() {
	s.service.AddNotification("long", model.NotificationInfo, 5*time.Second)
	s.service.AddNotification("short", model.NotificationInfo, time.Second)
	s.service.AddNotification("forever", model.NotificationInfo, 0)

	s.clock.Advance(time.Second)
	s.Equal([]int64{1, 3}, s.ids())

	s.clock.Advance(4 * time.Second)
	s.Equal([]int64{3}, s.ids())
}

func (s *ServiceSuite) TestDefaultDurations() {
	s.service.NotifySuccess("ok")
	s.service.NotifyError("ko")
	s.service.NotifyWarning("hm")
	s.service.NotifyInfo("fyi")

	list := s.service.Notifications()
	s.Require().Len(list, 4)
	s.Equal(4000*time.Millisecond, list[0].Duration)
	s.Equal(6000*time.Millisecond, list[1].Duration)
	s.Equal(5000*time.Millisecond, list[2].Duration)
	s.Equal(4000*time.Millisecond, list[3].Duration)

	s.clock.Advance(4 * time.Second)
	s.Equal([]int64{2, 3}, s.ids())
	s.clock.Advance(time.Second)
	s.Equal([]int64{2}, s.ids())
	s.clock.Advance(time.Second)
	s.Empty(s.ids())
}

func (s *ServiceSuite) TestExplicitDurationOverridesDefault() {
	s.service.NotifyError("sticky", 0)

	s.clock.Advance(time.Minute)
	s.Len(s.service.Notifications(), 1)
}

// Removal tests

func (s *ServiceSuite) TestRemoveIsIdempotent() {
	id := s.service.AddNotification("x", model.NotificationInfo, 0)
	s.service.AddNotification("y", model.NotificationInfo, 0)

	s.service.RemoveNotification(id)
	s.service.RemoveNotification(id)
	s.service.RemoveNotification(42)

	s.Equal([]int64{2}, s.ids())
}

func (s *ServiceSuite) TestRemoveCancelsTimer() {
	id := s.service.AddNotification("x", model.NotificationInfo, time.Second)
	s.service.RemoveNotification(id)

	s.Equal(0, s.clock.PendingTimers())
}

func (s *ServiceSuite) TestClearAllCancelsTimers() {
	s.service.AddNotification("x", model.NotificationInfo, time.Second)
	s.service.AddNotification("y", model.NotificationInfo, 0)

	s.service.ClearAll()

	s.Empty(s.service.Notifications())
	s.Equal(0, s.clock.PendingTimers())

	// A later notification is not removed by an old timer
	s.service.AddNotification("z", model.NotificationInfo, 0)
	s.clock.Advance(time.Second)
	s.Len(s.service.Notifications(), 1)
}

func (s *ServiceSuite) TestSnapshotIsACopy() {
	s.service.AddNotification("x", model.NotificationInfo, 0)

	list := s.service.Notifications()
	list[0].Message = "changed"

	s.Equal("x", s.service.Notifications()[0].Message)
}

// HandleAPIError tests

func (s *ServiceSuite) TestHandleAPIErrorPrefersUserMessage() {
	err := apierr.FromResponse(http.StatusRequestEntityTooLarge, "Request Entity Too Large", []byte(`{"error":"too big"}`))

	s.service.HandleAPIError(err, "default")

	list := s.service.Notifications()
	s.Require().Len(list, 1)
	s.Equal(apierr.MsgPayloadTooLarge, list[0].Message)
	s.Equal(model.NotificationError, list[0].Kind)
	s.Equal(DefaultErrorDuration, list[0].Duration)
}

func (s *ServiceSuite) TestHandleAPIErrorFallsBackToServerMessage() {
	err := &apierr.Error{Kind: apierr.KindClientRequest, StatusCode: 409, ServerMessage: "Position already used"}

	s.service.HandleAPIError(err, "default")

	s.Equal("Position already used", s.service.Notifications()[0].Message)
}

func (s *ServiceSuite) TestHandleAPIErrorFallsBackToErrorText() {
	s.service.HandleAPIError(errors.New("boom"), "default")

	s.Equal("boom", s.service.Notifications()[0].Message)
}

func (s *ServiceSuite) TestHandleAPIErrorFallsBackToDefault() {
	s.service.HandleAPIError(nil, "Une erreur est survenue.")

	s.Equal("Une erreur est survenue.", s.service.Notifications()[0].Message)
}

// Subscribe tests

func (s *ServiceSuite) TestSubscribeReceivesSnapshots() {
	ch, cancel := s.service.Subscribe()
	defer cancel()

	s.service.AddNotification("x", model.NotificationInfo, time.Second)
	s.clock.Advance(time.Second)

	first := <-ch
	s.Require().Len(first, 1)
	s.Equal("x", first[0].Message)

	second := <-ch
	s.Empty(second)
}

func (s *ServiceSuite) TestSlowSubscriberDoesNotBlock() {
	_, cancel := s.service.Subscribe()
	defer cancel()

	for range subscriberBuffer * 2 {
		s.service.AddNotification("x", model.NotificationInfo, 0)
	}

	s.Len(s.service.Notifications(), subscriberBuffer*2)
}

func (s *ServiceSuite) TestCancelClosesChannel() {
	ch, cancel := s.service.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	s.False(open)

	s.service.AddNotification("x", model.NotificationInfo, 0)
}
