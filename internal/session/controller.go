package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
)

// DefaultAdminUsername matches the account the backend's bootstrap script
// creates. Overridable through config.
const DefaultAdminUsername = "admin"

// Gateway is the slice of the API client the controller needs.
type Gateway interface {
	ListDatasets(ctx context.Context, cred api.Credential) ([]api.Dataset, error)
	Register(ctx context.Context, cred api.Credential) error
}

// Controller drives the login/registration/logout state machine. There is
// no dedicated verify endpoint; listing datasets doubles as the
// authentication probe, and a successful probe also fills the dataset store.
type Controller struct {
	gw        Gateway
	sess      *Session
	datasets  *dataset.Store
	adminUser string
	log       *zap.Logger
}

func NewController(gw Gateway, sess *Session, datasets *dataset.Store, adminUser string, log *zap.Logger) *Controller {
	if adminUser == "" {
		adminUser = DefaultAdminUsername
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gw: gw, sess: sess, datasets: datasets, adminUser: adminUser, log: log}
}

// Login probes the listing endpoint with the given credential. Exactly one
// outcome occurs per call and no retry happens here. On success the
// credential is stored, the dataset store is populated from the probe's
// listing and the admin flag is inferred. On failure the session is left
// (or made) anonymous with a mapped last error.
func (c *Controller) Login(ctx context.Context, cred api.Credential) error {
	epoch := c.sess.Epoch()
	gen := c.datasets.Begin()

	listing, err := c.gw.ListDatasets(ctx, cred)
	if err != nil {
		kind := mapLoginError(err)
		if !c.sess.fail(epoch, kind) {
			c.log.Info("discarding stale login failure", zap.String("username", cred.Username))
			return err
		}
		c.log.Warn("login failed",
			zap.String("username", cred.Username),
			zap.String("kind", kind.String()))
		return err
	}

	admin := c.IsAdminCredential(cred.Username, listing)
	if !c.sess.authenticate(epoch, cred, admin) {
		c.log.Info("discarding stale login success", zap.String("username", cred.Username))
		return context.Canceled
	}
	c.datasets.Apply(gen, listing)
	c.log.Info("login",
		zap.String("username", cred.Username),
		zap.Bool("admin", admin),
		zap.Int("datasets", len(listing)))
	return nil
}

// Register creates the account and, on success, immediately logs in with
// the same pair. Field-level validation failures come back as
// *api.ValidationError; transport failures keep their gateway kinds.
func (c *Controller) Register(ctx context.Context, cred api.Credential) error {
	if err := c.gw.Register(ctx, cred); err != nil {
		var ve *api.ValidationError
		if errors.As(err, &ve) {
			c.log.Warn("registration rejected",
				zap.String("username", cred.Username),
				zap.String("field", ve.Field))
		} else {
			c.log.Warn("registration failed", zap.String("username", cred.Username), zap.Error(err))
		}
		return err
	}
	c.log.Info("registered", zap.String("username", cred.Username))
	return c.Login(ctx, cred)
}

// Logout clears the credential, the dataset store and every derived flag.
// Safe to call repeatedly.
func (c *Controller) Logout() {
	c.sess.clear()
	c.datasets.Clear()
	c.log.Info("logout")
}

// IsAdminCredential is the privilege heuristic: the backend exposes no role
// field, so a session is treated as administrative when it is the known
// admin account or when the listing shows another user's uploads. This can
// misclassify a user who can legitimately see shared datasets; keep the
// rule in this one place so a real role field can replace it.
func (c *Controller) IsAdminCredential(username string, listing []api.Dataset) bool {
	if username == c.adminUser {
		return true
	}
	for _, d := range listing {
		if d.UploadedBy != "" && d.UploadedBy != username {
			return true
		}
	}
	return false
}

func mapLoginError(err error) ErrorKind {
	switch api.KindOf(err) {
	case api.KindUnauthorized:
		return ErrInvalidCredentials
	case api.KindServerError:
		return ErrServerUnavailable
	default:
		// Malformed responses and transport failures both mean we could
		// not have a sane conversation with the server.
		return ErrUnreachable
	}
}
