package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pliu/taskchat/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

func mustCreateUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, HashedPassword: "hash"}
	if err := testStore.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}
