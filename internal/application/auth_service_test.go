package application

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

func newAuthFixture(t *testing.T, otp *fakeOTP) (*AuthService, *entity.User) {
	t.Helper()
	hash, err := helpers.HashPassword("correct horse")
	require.NoError(t, err)
	u := &entity.User{ID: "u-1", Email: "jane@example.com", PasswordHash: hash, Phone: "+15551234567", Role: entity.RoleReporter}
	logger, _ := test.NewNullLogger()
	return NewAuthService(newFakeUsers(u), otp, testJWT(), logger), u
}

func TestLoginWithCredentials_Success(t *testing.T) {
	svc, u := newAuthFixture(t, &fakeOTP{})

	res, err := svc.LoginWithCredentials(context.Background(), "  Jane@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.Session.ID)
	assert.Equal(t, "jane", res.Session.Name)
	assert.Equal(t, entity.RoleReporter, res.Session.Role)
	assert.NotEmpty(t, res.AccessToken)

	claims, err := testJWT().ParseAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestLoginWithCredentials_NoUserExistenceLeak(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeOTP{})

	_, wrongPassword := svc.LoginWithCredentials(context.Background(), "jane@example.com", "nope")
	_, unknownEmail := svc.LoginWithCredentials(context.Background(), "ghost@example.com", "nope")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginWithCredentials_StoreFailureIsUpstream(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeOTP{})
	svc.Users.(*fakeUsers).err = errBoom

	_, err := svc.LoginWithCredentials(context.Background(), "jane@example.com", "correct horse")
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.ErrorIs(t, err, errBoom)
}

func TestRequestOTP_NonPendingIsSendFailure(t *testing.T) {
	otp := &fakeOTP{requestStatus: entity.OTPFailed}
	svc, _ := newAuthFixture(t, otp)

	err := svc.RequestOTP(context.Background(), "+15551234567")
	assert.ErrorIs(t, err, ErrOtpSendFailed)
}

func TestRequestOTP_ProviderErrorIsSendFailure(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeOTP{err: errBoom})

	err := svc.RequestOTP(context.Background(), "+15551234567")
	assert.ErrorIs(t, err, ErrOtpSendFailed)
	assert.True(t, errors.Is(err, errBoom))
}

func TestRequestOTP_NormalizesPhone(t *testing.T) {
	otp := &fakeOTP{requestStatus: entity.OTPPending}
	svc, _ := newAuthFixture(t, otp)

	require.NoError(t, svc.RequestOTP(context.Background(), "+1 555-123-4567"))
	assert.Equal(t, "+15551234567", otp.lastPhone)
}

func TestRequestOTP_InvalidPhone(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeOTP{requestStatus: entity.OTPPending})

	err := svc.RequestOTP(context.Background(), "12")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestLoginWithOTP(t *testing.T) {
	for _, st := range []entity.OTPStatus{entity.OTPPending, entity.OTPRejected, entity.OTPExpired, entity.OTPFailed} {
		svc, _ := newAuthFixture(t, &fakeOTP{checkStatus: st})
		_, err := svc.LoginWithOTP(context.Background(), "+15551234567", "123456")
		assert.ErrorIs(t, err, ErrOtpNotApproved, "status %s", st)
	}

	svc, u := newAuthFixture(t, &fakeOTP{checkStatus: entity.OTPApproved})
	res, err := svc.LoginWithOTP(context.Background(), "+15551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.Session.ID)
	assert.Equal(t, u.Phone, res.Session.Phone)
}

func TestLoginWithOTP_UnknownPhone(t *testing.T) {
	svc, _ := newAuthFixture(t, &fakeOTP{checkStatus: entity.OTPApproved})

	_, err := svc.LoginWithOTP(context.Background(), "+442079460958", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginWithOTP_ProviderErrorIsUpstream(t *testing.T) {
	hash, _ := helpers.HashPassword("x")
	u := &entity.User{ID: "u-1", Email: "a@b.c", PasswordHash: hash, Phone: "+15551234567", Role: entity.RoleReporter}
	logger, hook := test.NewNullLogger()
	svc := NewAuthService(newFakeUsers(u), &fakeOTP{err: errBoom}, testJWT(), logger)

	_, err := svc.LoginWithOTP(context.Background(), "+15551234567", "123456")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrOtpNotApproved)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
