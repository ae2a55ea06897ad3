package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому хранится *gorm.DB (пул или транзакция)
	DBContextKey = contextKey("db")

	// UserIDKey - ключ gin.Context с ID аутентифицированного пользователя
	UserIDKey = "userID"

	// UserRoleKey - ключ gin.Context с ролью пользователя из токена
	UserRoleKey = "userRole"
)
