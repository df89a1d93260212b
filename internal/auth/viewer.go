package auth

import (
	"gcsmedia/backend/internal/models"

	"github.com/google/uuid"
)

const (
	CapManageOptions   = "manage_options"
	CapActivatePlugins = "activate_plugins"
	CapUploadFiles     = "upload_files"
)

var roleCapabilities = map[models.UserRole][]string{
	models.RoleAdmin:  {CapManageOptions, CapActivatePlugins, CapUploadFiles},
	models.RoleEditor: {CapUploadFiles},
}

// Viewer is the user a request is made on behalf of. The zero value is
// the anonymous visitor and holds no capabilities.
type Viewer struct {
	UserID uuid.UUID
	Email  string
	Role   models.UserRole
}

// Can reports whether the viewer's role grants capability.
func (v Viewer) Can(capability string) bool {
	for _, c := range roleCapabilities[v.Role] {
		if c == capability {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether the request carried no valid token.
func (v Viewer) IsAnonymous() bool {
	return v.UserID == uuid.Nil
}
