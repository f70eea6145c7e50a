package model

// AllはAutoMigrateの対象
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Feedback{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
