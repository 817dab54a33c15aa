package models

// All lists every model managed by migrations, parents before children.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Activity{},
		&ActivityLog{},
		&UploadRecord{},
		&Notification{},
	}
}
