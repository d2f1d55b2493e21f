package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dbContextKey = "db"

// DatabaseMiddleware injects the database connection into the request
// context so handlers pick it up through GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(dbContextKey, db)
		c.Next()
	}
}

// GetDB returns the database connection set by DatabaseMiddleware.
func GetDB(c *gin.Context) (*gorm.DB, error) {
	value, exists := c.Get(dbContextKey)
	if !exists {
		return nil, errors.New("database connection not found in context")
	}
	db, ok := value.(*gorm.DB)
	if !ok {
		return nil, errors.New("invalid database connection in context")
	}
	return db, nil
}
