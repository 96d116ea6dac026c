package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"pinboard/api/v1/request"
	"pinboard/dao"
	"pinboard/internal/mailer"
	"pinboard/utils"
)

type fakeSender struct {
	result Result
	calls  int
	last   struct{ subject, recipient, body string }
}

// Result alias keeps the fake small.
type Result = mailer.Result

func (f *fakeSender) Send(ctx context.Context, subject, recipient, body string) mailer.Result {
	f.calls++
	f.last.subject = subject
	f.last.recipient = recipient
	f.last.body = body
	return f.result
}

func newMockService(t *testing.T) (*AccountService, sqlmock.Sqlmock, *fakeSender) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	sender := &fakeSender{result: mailer.Result{Sent: true}}
	svc := NewAccountService(dao.NewUserDAO(gdb), nil, sender)
	return svc, mock, sender
}

func emptyUserRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func userRows(id uint64, email, username, passwordHash string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "is_active"}).
		AddRow(id, email, username, passwordHash, active)
}

func registerForm() *request.RegisterForm {
	return &request.RegisterForm{
		Username:  "a",
		Email:     "a@x.com",
		Password1: "Sup3rSecret!",
		Password2: "Sup3rSecret!",
	}
}

func TestValidateRegistrationClean(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE username = (.+)").WillReturnRows(emptyUserRows())

	o := svc.ValidateRegistration(context.Background(), registerForm())
	assert.True(t, o.OK())
	assert.Equal(t, "a@x.com", o.Values["email"])
	// Passwords never travel back to the template.
	_, hasPassword := o.Values["password1"]
	assert.False(t, hasPassword)
}

func TestValidateRegistrationDuplicateEmailAndUsername(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").
		WillReturnRows(userRows(1, "a@x.com", "other", "h", true))
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE username = (.+)").
		WillReturnRows(userRows(2, "other@x.com", "a", "h", true))

	o := svc.ValidateRegistration(context.Background(), registerForm())
	assert.False(t, o.OK())
	assert.Equal(t, "A user with that email already exists.", o.Errors["email"])
	assert.Equal(t, "A user with that username already exists.", o.Errors["username"])
}

func TestValidateRegistrationPasswordMismatch(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE username = (.+)").WillReturnRows(emptyUserRows())

	f := registerForm()
	f.Password2 = "Different1!"
	o := svc.ValidateRegistration(context.Background(), f)
	assert.Equal(t, "The two password fields didn't match.", o.Errors["password2"])
}

func TestValidateRegistrationWeakPassword(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").WillReturnRows(emptyUserRows())
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE username = (.+)").WillReturnRows(emptyUserRows())

	f := registerForm()
	f.Password1 = "short"
	f.Password2 = "short"
	o := svc.ValidateRegistration(context.Background(), f)
	assert.Contains(t, o.Errors["password1"], "too short")
}

func TestRegisterPersistsHashedPassword(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user, err := svc.Register(context.Background(), registerForm(), "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), user.ID)
	assert.True(t, user.Identity.IsActive)
	assert.NotEqual(t, "Sup3rSecret!", user.Identity.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("Sup3rSecret!", user.Identity.PasswordHash))
}

func TestRegisterMapsDuplicateEmail(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'a@x.com' for key 'users.idx_users_email'",
	})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), registerForm(), "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterMapsDuplicateUsername(t *testing.T) {
	svc, mock, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'a' for key 'users.idx_users_username'",
	})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), registerForm(), "")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestAuthenticateNoLeak(t *testing.T) {
	hash, err := utils.HashPassword("Sup3rSecret!")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		svc, mock, _ := newMockService(t)
		mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").WillReturnRows(emptyUserRows())

		_, err := svc.Authenticate(context.Background(), "nobody@x.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock, _ := newMockService(t)
		mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").
			WillReturnRows(userRows(7, "a@x.com", "a", hash, true))

		_, err := svc.Authenticate(context.Background(), "a@x.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		svc, mock, _ := newMockService(t)
		mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").
			WillReturnRows(userRows(7, "a@x.com", "a", hash, false))

		_, err := svc.Authenticate(context.Background(), "a@x.com", "Sup3rSecret!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateSuccessStampsLastLogin(t *testing.T) {
	hash, err := utils.HashPassword("Sup3rSecret!")
	require.NoError(t, err)

	svc, mock, _ := newMockService(t)
	mock.ExpectQuery("SELECT (.+) FROM `users` WHERE email = (.+)").
		WillReturnRows(userRows(7, "a@x.com", "a", hash, true))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := svc.Authenticate(context.Background(), "a@x.com", "Sup3rSecret!")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), user.ID)
	require.NotNil(t, user.Identity.LastLogin)
}

func TestSendWelcomeUsesFixedContent(t *testing.T) {
	svc, _, sender := newMockService(t)

	res := svc.SendWelcome(context.Background(), "a@x.com")
	assert.True(t, res.Sent)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "Welcome to our site", sender.last.subject)
	assert.Equal(t, "a@x.com", sender.last.recipient)
	assert.Equal(t, "Thank you for registering on our site", sender.last.body)
}

func TestSendWelcomeFailureIsReturnedNotRaised(t *testing.T) {
	svc, _, sender := newMockService(t)
	sender.result = mailer.Result{Reason: "550 rejected"}

	res := svc.SendWelcome(context.Background(), "a@x.com")
	assert.False(t, res.Sent)
	assert.Equal(t, "550 rejected", res.Reason)
}
