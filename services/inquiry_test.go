package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty_backoffice/errs"
	"realty_backoffice/models"
)

func newInquiryService(t *testing.T) *InquiryService {
	t.Helper()
	svc := NewInquiryService(newGateway(t))
	svc.now = steppingClock()
	return svc
}

func TestInquirySubmitDefaults(t *testing.T) {
	svc := newInquiryService(t)

	inq, err := svc.Submit(context.Background(), models.InquiryInput{
		Name:    "  Jane Buyer ",
		Email:   "jane@example.com",
		Message: "Is the house still available?",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inq.ID, models.InquiryIDPrefix))
	assert.Equal(t, "Jane Buyer", inq.Name)
	assert.Equal(t, models.InquiryTypeGeneral, inq.InquiryType)
	assert.False(t, inq.IsRead)
	assert.False(t, inq.CreatedAt.IsZero())
}

func TestInquirySubmitValidation(t *testing.T) {
	svc := newInquiryService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, models.InquiryInput{Name: "Jane", Email: "jane@example.com", Message: "   "})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindInvalidInput))
	assert.Equal(t, MsgMissingFields, err.Error())

	_, err = svc.Submit(ctx, models.InquiryInput{Name: "Jane", Email: "not-an-email", Message: "Hi"})
	require.Error(t, err)
	assert.Equal(t, MsgInvalidEmail, err.Error())

	list, err := svc.List(adminCtx())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInquiryAdminOperationsRequireSession(t *testing.T) {
	svc := newInquiryService(t)
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.True(t, errs.Is(err, errs.KindAuthRequired))
	assert.True(t, errs.Is(svc.MarkAsRead(ctx, "inq_x"), errs.KindAuthRequired))
	assert.True(t, errs.Is(svc.Delete(ctx, "inq_x"), errs.KindAuthRequired))
}

func TestInquiryMarkAsReadIsIdempotent(t *testing.T) {
	svc := newInquiryService(t)
	ctx := adminCtx()

	inq, err := svc.Submit(context.Background(), models.InquiryInput{Name: "A", Email: "a@b.co", Message: "Hi"})
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, svc.MarkAsRead(ctx, inq.ID))
	require.NoError(t, svc.MarkAsRead(ctx, inq.ID))

	got, err := svc.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.Equal(t, inq.Message, got.Message)

	unread, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	assert.True(t, errs.Is(svc.MarkAsRead(ctx, "inq_missing"), errs.KindNotFound))
}

func TestInquiryListNewestFirstAndDelete(t *testing.T) {
	svc := newInquiryService(t)
	ctx := adminCtx()

	first, err := svc.Submit(ctx, models.InquiryInput{Name: "A", Email: "a@b.co", Message: "first"})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, models.InquiryInput{Name: "B", Email: "b@b.co", Message: "second", InquiryType: "showing"})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "showing", list[0].InquiryType)
	assert.Equal(t, first.ID, list[1].ID)

	require.NoError(t, svc.Delete(ctx, first.ID))
	require.NoError(t, svc.Delete(ctx, first.ID))

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
