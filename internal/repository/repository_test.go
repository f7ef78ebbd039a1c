package repository

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
    "gorm.io/gorm/logger"

    "github.com/d60-Lab/emoji-feed/internal/model"
)

func setupTestDB(t testing.TB) *gorm.DB {
    t.Helper()
    db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
    require.NoError(t, err)
    sqlDB, err := db.DB()
    require.NoError(t, err)
    // :memory: 每个连接一份独立库
    sqlDB.SetMaxOpenConns(1)
    require.NoError(t, db.AutoMigrate(&model.Post{}, &model.User{}))
    return db
}

func TestPostRepository_Create(t *testing.T) {
    repo := NewPostRepository(setupTestDB(t))

    p, err := repo.Create(context.Background(), "🚀", "user_1")
    require.NoError(t, err)
    assert.NotEmpty(t, p.ID)
    assert.Equal(t, "🚀", p.Content)
    assert.Equal(t, "user_1", p.AuthorID)
    assert.False(t, p.CreatedAt.IsZero())
    assert.False(t, p.UpdatedAt.IsZero())

    p2, err := repo.Create(context.Background(), "🚀", "user_1")
    require.NoError(t, err)
    assert.NotEqual(t, p.ID, p2.ID)
}

func TestPostRepository_ListRecent(t *testing.T) {
    db := setupTestDB(t)
    repo := NewPostRepository(db)
    ctx := context.Background()

    got, err := repo.ListRecent(ctx, 100)
    require.NoError(t, err)
    assert.NotNil(t, got)
    assert.Empty(t, got)

    base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    for i := 0; i < 120; i++ {
        ts := base.Add(time.Duration(i) * time.Second)
        require.NoError(t, db.Create(&model.Post{
            ID: fmt.Sprintf("p%03d", i), Content: "😀", AuthorID: "user_1", CreatedAt: ts, UpdatedAt: ts,
        }).Error)
    }

    got, err = repo.ListRecent(ctx, 100)
    require.NoError(t, err)
    require.Len(t, got, 100)
    assert.Equal(t, "p119", got[0].ID)
    for i := 1; i < len(got); i++ {
        assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "feed must be newest first")
    }
}

func TestUserRepository(t *testing.T) {
    repo := NewUserRepository(setupTestDB(t))
    ctx := context.Background()

    require.NoError(t, repo.Upsert(ctx, &model.User{ID: "u1", FirstName: "Ada"}))
    require.NoError(t, repo.Upsert(ctx, &model.User{ID: "u2", FirstName: "Bob"}))
    require.NoError(t, repo.Upsert(ctx, &model.User{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}))

    users, err := repo.FindByIDs(ctx, []string{"u1", "missing"}, 100)
    require.NoError(t, err)
    require.Len(t, users, 1)
    assert.Equal(t, "Lovelace", users[0].LastName)

    users, err = repo.FindByIDs(ctx, nil, 100)
    require.NoError(t, err)
    assert.Empty(t, users)
}
