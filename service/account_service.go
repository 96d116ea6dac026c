package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"pinboard/api/v1/request"
	"pinboard/dao"
	"pinboard/internal/auth"
	"pinboard/internal/logger"
	"pinboard/internal/mailer"
	"pinboard/internal/validator"
	"pinboard/model"
	"pinboard/utils"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserExists covers a duplicate-key violation whose field could not
	// be determined from the driver error.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for unknown email, wrong password
	// and disabled accounts alike, so a caller cannot tell which it was.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	welcomeSubject = "Welcome to our site"
	welcomeBody    = "Thank you for registering on our site"
)

// Sender is the mail-transport collaborator. Satisfied by *mailer.Mailer.
type Sender interface {
	Send(ctx context.Context, subject, recipient, body string) mailer.Result
}

// AccountService bundles the DAO, session storage and the mail transport.
type AccountService struct {
	dao     *dao.UserDAO
	mail    Sender
	Session *auth.SessionManager
}

// NewAccountService 创建一个新的 AccountService 实例
func NewAccountService(dao *dao.UserDAO, rdb *redis.Client, mail Sender) *AccountService {
	return &AccountService{
		dao:     dao,
		mail:    mail,
		Session: auth.NewSessionManager(rdb),
	}
}

// ValidateRegistration runs the pre-persistence checks on an already-bound
// form: uniqueness pre-checks, password confirmation and password policy.
// The uniqueness checks are best-effort; the database constraint remains the
// authoritative guard against a racing duplicate.
func (s *AccountService) ValidateRegistration(ctx context.Context, f *request.RegisterForm) *request.Outcome {
	o := f.Outcome()

	if _, err := s.dao.FindByEmail(ctx, f.Email); err == nil {
		o.AddError("email", "A user with that email already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorw("email uniqueness pre-check failed", "err", err)
	}

	if _, err := s.dao.FindByUsername(ctx, f.Username); err == nil {
		o.AddError("username", "A user with that username already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Errorw("username uniqueness pre-check failed", "err", err)
	}

	if f.Password1 != f.Password2 {
		o.AddError("password2", "The two password fields didn't match.")
	}
	for _, msg := range validator.CheckPassword(f.Password1, f.Username, f.Email) {
		o.AddError("password1", msg)
	}

	return o
}

// Register persists a freshly created user after hashing the password.
// A duplicate-key violation is mapped back to the offending field.
func (s *AccountService) Register(ctx context.Context, f *request.RegisterForm, avatarKey string) (*model.User, error) {
	hashed, err := utils.HashPassword(f.Password1)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     f.Email,
		Username:  f.Username,
		Location:  f.Location,
		BirthDate: f.ParsedBirthDate(),
		Bio:       f.Bio,
		AvatarKey: avatarKey,
		Identity: model.Identity{
			PasswordHash: hashed,
			IsActive:     true,
		},
	}

	if err := s.dao.CreateUser(ctx, user); err != nil {
		return nil, mapDuplicateErr(err)
	}
	return user, nil
}

// Authenticate checks an email/password pair against the stored credentials.
// Unknown email, wrong password and disabled accounts all produce
// ErrInvalidCredentials so the response never leaks which part failed.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.dao.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Errorw("authenticate lookup failed", "err", err)
		}
		return nil, ErrInvalidCredentials
	}
	if !user.Identity.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, user.Identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.dao.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.Warnw("failed to stamp last login", "user_id", user.ID, "err", err)
	}
	user.Identity.LastLogin = &now

	return user, nil
}

// SendWelcome fires the post-registration mail. The Result is informational;
// registration has already succeeded by the time this runs.
func (s *AccountService) SendWelcome(ctx context.Context, email string) mailer.Result {
	return s.mail.Send(ctx, welcomeSubject, email, welcomeBody)
}

// mapDuplicateErr converts a unique-constraint violation into the matching
// sentinel. MySQL error 1062 includes the index name, which tells us the
// field; gorm's translated error does not.
func mapDuplicateErr(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		switch {
		case strings.Contains(mysqlErr.Message, "email"):
			return ErrEmailTaken
		case strings.Contains(mysqlErr.Message, "username"):
			return ErrUsernameTaken
		default:
			return ErrUserExists
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserExists
	}
	return err
}
