package user

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDirectory(t *testing.T) *GormDirectory {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormDirectory(db)
}

func TestGormDirectory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t)

	u, err := dir.Create(ctx, CreateInput{
		Email:        " Alice@Example.com",
		PasswordHash: "$2a$12$hash",
		FirstName:    "Alice",
		LastName:     "Liddell",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsVerified)

	byEmail, err := dir.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "$2a$12$hash", byEmail.PasswordHash)

	byID, err := dir.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
}

func TestGormDirectory_NotFound(t *testing.T) {
	dir := newTestDirectory(t)
	_, err := dir.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = dir.FindByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormDirectory_Duplicate(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t)
	in := CreateInput{Email: "bob@example.com", PasswordHash: "h", FirstName: "Bob", LastName: "Builder"}
	_, err := dir.Create(ctx, in)
	require.NoError(t, err)

	in.Email = "BOB@example.com"
	_, err = dir.Create(ctx, in)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormDirectory_SetActive(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(t)
	u, err := dir.Create(ctx, CreateInput{Email: "c@example.com", PasswordHash: "h", FirstName: "Cy", LastName: "Do"})
	require.NoError(t, err)

	require.NoError(t, dir.SetActive(ctx, u.ID, false))
	got, err := dir.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestView_OmitsHash(t *testing.T) {
	u := &User{ID: "1", Email: "a@example.com", PasswordHash: "secret-hash", FirstName: "A"}
	raw, err := json.Marshal(u.View())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-hash")
	assert.Contains(t, string(raw), `"email":"a@example.com"`)
}
