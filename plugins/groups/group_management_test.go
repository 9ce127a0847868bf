package groups

import (
	"errors"
	"testing"

	"github.com/gadget-bot/venueshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Group{}, &models.User{}))
	return db
}

func members(t *testing.T, db *gorm.DB, groupName string) []string {
	t.Helper()
	var group models.Group
	require.NoError(t, db.Preload("Members").Where(models.Group{Name: groupName}).First(&group).Error)
	var uuids []string
	for _, m := range group.Members {
		uuids = append(uuids, m.Uuid)
	}
	return uuids
}

func TestGetSlashCommandRoute_Metadata(t *testing.T) {
	route := GetSlashCommandRoute()

	assert.Equal(t, "groups.venueadmin", route.Name)
	assert.Equal(t, "/venueadmin", route.Command)
	assert.Equal(t, []string{models.GlobalAdmins}, route.Permissions)
	assert.NotNil(t, route.Plugin)
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "<@U123|urianger>", want: "U123", ok: true},
		{in: "<@U123>", want: "U123", ok: true},
		{in: "U123ABC", want: "U123ABC", ok: true},
		{in: "urianger", ok: false},
		{in: "<#C123>", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseUser(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatch_AddListRemove(t *testing.T) {
	db := setupDB(t)

	assert.Equal(t, "I don't know about any groups yet.", Dispatch(db, "list"))

	assert.Equal(t, "I successfully added <@U1> to curators!", Dispatch(db, "add <@U1|tataru> curators"))
	assert.Equal(t, "I successfully added <@U2> to curators!", Dispatch(db, "ADD U2 curators"))
	assert.ElementsMatch(t, []string{"U1", "U2"}, members(t, db, "curators"))

	list := Dispatch(db, "list")
	assert.Contains(t, list, "*-* curators: ")
	assert.Contains(t, list, "<@U1>")

	assert.Equal(t, "<@U1> is no longer a member of curators!", Dispatch(db, "remove <@U1> curators"))
	assert.Equal(t, []string{"U2"}, members(t, db, "curators"))

	assert.Equal(t, "It doesn't look like <@U1> is a member of curators.", Dispatch(db, "remove <@U1> curators"))
	assert.Equal(t, "I couldn't find a group named 'ghosts'.", Dispatch(db, "remove <@U1> ghosts"))
}

func TestDispatch_ListReportsDatabaseErrors(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.Group{}))

	assert.Equal(t, "I couldn't list the groups.", Dispatch(db, "list"))
}

func TestDispatch_AddReportsDatabaseErrors(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	assert.Equal(t, "I couldn't add <@U1> to curators.", Dispatch(db, "add <@U1> curators"))
}

func TestDispatch_RemoveReportsDatabaseErrors(t *testing.T) {
	db := setupDB(t)
	require.Equal(t, "I successfully added <@U1> to curators!", Dispatch(db, "add <@U1> curators"))
	require.Equal(t, "I successfully added <@U2> to curators!", Dispatch(db, "add <@U2> curators"))

	// membership rows can no longer be deleted
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		tx.AddError(errors.New("disk I/O error"))
	}))

	assert.Equal(t, "I couldn't remove <@U1> from curators.", Dispatch(db, "remove <@U1> curators"))
}

func TestDispatch_RemoveReportsLookupErrors(t *testing.T) {
	db := setupDB(t)
	require.Equal(t, "I successfully added <@U1> to curators!", Dispatch(db, "add <@U1> curators"))
	require.NoError(t, db.Migrator().DropTable("user_groups"))

	assert.Equal(t, "I couldn't remove <@U1> from curators.", Dispatch(db, "remove <@U1> curators"))
}

func TestDispatch_Usage(t *testing.T) {
	db := setupDB(t)

	for _, text := range []string{"", "frobnicate", "add", "add <@U1>", "add nobody curators", "add <@U1> bad-name"} {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, usage, Dispatch(db, text))
		})
	}
}
