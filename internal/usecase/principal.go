package usecase

import "storefront/internal/domain/model"

// 認証済みの呼び出し元。middlewareで作ってhandlerから明示的に渡す
type Principal struct {
	UserID int64
	Role   model.Role
}

func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// CanAccessは管理者か本人か
func (p Principal) CanAccess(ownerID int64) bool {
	return p.IsAdmin() || (p.UserID > 0 && p.UserID == ownerID)
}
