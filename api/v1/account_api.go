package v1

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"pinboard/api/v1/request"
	"pinboard/config"
	"pinboard/internal/auth"
	"pinboard/internal/logger"
	"pinboard/internal/mailer"
	"pinboard/internal/metrics"
	"pinboard/internal/storage"
	"pinboard/middleware"
	"pinboard/model"
	"pinboard/service"
)

const flashCookie = "pb_flash"

// Accounts is the service contract the handlers drive.
type Accounts interface {
	ValidateRegistration(ctx context.Context, f *request.RegisterForm) *request.Outcome
	Register(ctx context.Context, f *request.RegisterForm, avatarKey string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	SendWelcome(ctx context.Context, email string) mailer.Result
}

// Sessions is the slice of the session manager the handlers need.
type Sessions interface {
	Save(sid string, userID uint64, ttl time.Duration) error
	Delete(sid string) error
}

// AccountAPI exposes the register / login / logout page flows.
// AccountAPI 聚合了所有与账号相关的 HTTP Handler。
type AccountAPI struct {
	service  Accounts
	sessions Sessions
	avatars  storage.AvatarStore
}

// NewAccountAPI wires the service layer into the HTTP handlers.
func NewAccountAPI(svc *service.AccountService, avatars storage.AvatarStore) *AccountAPI {
	return &AccountAPI{service: svc, sessions: svc.Session, avatars: avatars}
}

// Home renders the landing page with the current user and any flash message.
func (a *AccountAPI) Home(c *gin.Context) {
	data := gin.H{"flash": popFlash(c)}
	if user, ok := middleware.UserFromContext(c); ok {
		data["user"] = user
		if user.AvatarKey != "" {
			if url, err := a.avatars.PresignGet(c.Request.Context(), user.AvatarKey); err == nil {
				data["avatar_url"] = url
			} else {
				logger.Log.Warnw("failed to presign avatar", "key", user.AvatarKey, "err", err)
			}
		}
	}
	c.HTML(http.StatusOK, "home.html", data)
}

// RegisterPage renders the empty registration form.
func (a *AccountAPI) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"form": request.NewOutcome()})
}

// Register handles the registration submission. On success the user is
// persisted, the welcome mail is attempted, and a session is established
// before redirecting home. The mail result never affects the outcome.
func (a *AccountAPI) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var form request.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		o := form.Outcome()
		for field, msg := range request.FieldErrors(err) {
			o.AddError(field, msg)
		}
		metrics.IncRegister("invalid")
		a.renderRegister(c, o)
		return
	}

	o := a.service.ValidateRegistration(ctx, &form)

	var avatarKey string
	if fh, _ := c.FormFile("avatar"); fh != nil {
		contentType, ok := sniffImage(fh)
		if !ok {
			o.AddError("avatar", "Upload a valid image.")
		} else if o.OK() {
			key, err := a.storeAvatar(ctx, fh, contentType)
			if err != nil {
				logger.Log.Errorw("failed to store avatar", "err", err)
				o.AddError("avatar", "Could not store the uploaded image.")
			} else {
				avatarKey = key
			}
		}
	}

	if !o.OK() {
		metrics.IncRegister("invalid")
		a.renderRegister(c, o)
		return
	}

	user, err := a.service.Register(ctx, &form, avatarKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUserExists):
			o.AddError("email", "A user with that email already exists.")
		case errors.Is(err, service.ErrUsernameTaken):
			o.AddError("username", "A user with that username already exists.")
		default:
			metrics.IncRegister("error")
			logger.Log.Errorw("failed to create user", "err", err)
			c.String(http.StatusInternalServerError, "Internal server error")
			return
		}
		metrics.IncRegister("duplicate")
		a.renderRegister(c, o)
		return
	}

	setFlash(c, "Account created successfully")

	// Mail goes out before the login step so a slow or broken mail server
	// can never leave a created account without a session.
	if res := a.service.SendWelcome(ctx, form.Email); res.Sent {
		metrics.IncWelcomeMail("sent")
	} else {
		metrics.IncWelcomeMail("failed")
		logger.Log.Warnw("welcome mail not delivered", "recipient", form.Email, "reason", res.Reason)
	}

	if authed, err := a.service.Authenticate(ctx, form.Email, form.Password1); err == nil {
		if err := a.establishSession(c, authed.ID); err != nil {
			logger.Log.Errorw("failed to establish session after registration", "user_id", user.ID, "err", err)
		}
	} else {
		logger.Log.Errorw("post-registration authentication failed", "user_id", user.ID, "err", err)
	}

	metrics.IncRegister("success")
	c.Redirect(http.StatusSeeOther, "/")
}

// LoginPage renders the empty login form.
func (a *AccountAPI) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"form": request.NewOutcome()})
}

// Login validates the submission and establishes a session. A structurally
// invalid form and a failed authentication produce the same response, so
// the error never reveals whether the email exists.
func (a *AccountAPI) Login(c *gin.Context) {
	var form request.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.IncLogin("invalid")
		a.renderLoginError(c, &form)
		return
	}

	user, err := a.service.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		metrics.IncLogin("unauthorized")
		a.renderLoginError(c, &form)
		return
	}

	if err := a.establishSession(c, user.ID); err != nil {
		metrics.IncLogin("error")
		logger.Log.Errorw("failed to establish session", "user_id", user.ID, "err", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	setFlash(c, "You are now logged in")
	metrics.IncLogin("success")
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout destroys the current session and redirects home. It is idempotent:
// a request without a session, or with a stale one, succeeds the same way.
func (a *AccountAPI) Logout(c *gin.Context) {
	cookieName := config.GlobalConfig.Session.CookieName
	if token, err := c.Cookie(cookieName); err == nil {
		if claims, err := auth.ParseSessionToken(token); err == nil {
			if err := a.sessions.Delete(claims.SessionID); err != nil {
				logger.Log.Warnw("failed to delete session", "sid", claims.SessionID, "err", err)
			}
		}
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
	}

	setFlash(c, "You are now logged out")
	metrics.IncLogout("success")
	c.Redirect(http.StatusSeeOther, "/")
}

func (a *AccountAPI) renderRegister(c *gin.Context, o *request.Outcome) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"form":   o,
		"banner": "Error creating your account",
	})
}

func (a *AccountAPI) renderLoginError(c *gin.Context, form *request.LoginForm) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"form":   form.Outcome(),
		"banner": "Invalid email or password",
	})
}

func (a *AccountAPI) establishSession(c *gin.Context, userID uint64) error {
	token, sid, err := auth.NewSessionToken(userID)
	if err != nil {
		return err
	}
	ttl := time.Duration(config.GlobalConfig.Session.TTL) * time.Second
	if err := a.sessions.Save(sid, userID, ttl); err != nil {
		return err
	}
	c.SetCookie(config.GlobalConfig.Session.CookieName, token, int(config.GlobalConfig.Session.TTL), "/", "", false, true)
	return nil
}

func (a *AccountAPI) storeAvatar(ctx context.Context, fh *multipart.FileHeader, contentType string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return a.avatars.Put(ctx, f, contentType)
}

// sniffImage checks the uploaded file is an image by content, not extension.
func sniffImage(fh *multipart.FileHeader) (string, bool) {
	f, err := fh.Open()
	if err != nil {
		return "", false
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", false
	}
	return mt.String(), true
}

func setFlash(c *gin.Context, msg string) {
	c.SetCookie(flashCookie, msg, 60, "/", "", false, true)
}

func popFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	return msg
}
