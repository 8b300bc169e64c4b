package entity

type User struct {
	Base
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
	IsStaff      bool   `db:"is_staff"`
	IsActive     bool   `db:"is_active"`
}
