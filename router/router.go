package router

import (
	"sort"

	"github.com/gadget-bot/venueshare/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

//Route The metadata shared by every command route
type Route struct {
	Name        string
	Description string
	Help        string
	Permissions []string
	Priority    int
}

// RouteInfo describes a registered route for help listings.
type RouteInfo struct {
	Route
	Command string
}

//Router dispatches Slack slash commands to plugins
type Router struct {
	SlashCommandRoutes      map[string]SlashCommandRoute
	DeniedSlashCommandRoute SlashCommandRoute
	DbConnection            *gorm.DB
}

// NewRouter returns a new Router
func NewRouter() *Router {
	var newRouter Router
	newRouter.SlashCommandRoutes = make(map[string]SlashCommandRoute)
	return &newRouter
}

// SetupDb migrates the schemas
func (router Router) SetupDb() error {
	return router.DbConnection.AutoMigrate(&models.Group{}, &models.User{})
}

// FindSlashCommandRouteByCommand Returns the route registered for command, e.g. "/searchlocation"
func (router Router) FindSlashCommandRouteByCommand(command string) (SlashCommandRoute, bool) {
	route, exists := router.SlashCommandRoutes[command]
	return route, exists
}

// RegisteredRoutes lists the routes users can call, highest priority first
// and then by name. The denied route is not included.
func (router Router) RegisteredRoutes() []RouteInfo {
	routes := make([]RouteInfo, 0, len(router.SlashCommandRoutes))
	for _, route := range router.SlashCommandRoutes {
		routes = append(routes, RouteInfo{Route: route.Route, Command: route.Command})
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Priority != routes[j].Priority {
			return routes[i].Priority > routes[j].Priority
		}
		return routes[i].Name < routes[j].Name
	})
	return routes
}

// CurrentUser finds or creates the user with the Slack id uuid. It reports
// false when the router has no database.
func (router Router) CurrentUser(uuid string) (models.User, bool) {
	var user models.User
	if router.DbConnection == nil {
		return user, false
	}
	if err := router.DbConnection.FirstOrCreate(&user, models.User{Uuid: uuid}).Error; err != nil {
		log.Error().Err(err).Str("user", uuid).Msg("Failed to load user")
		return user, false
	}
	return user, true
}

// Can Returns true if `u` possesses the provided permissions
func (router Router) Can(u models.User, permissions []string) bool {
	var userGroups []models.Group
	router.DbConnection.Model(&u).Association("Groups").Find(&userGroups)

	userGroupNames := make(map[string]bool, len(userGroups))
	for _, userGroup := range userGroups {
		// If the user is a global admin, let them through
		if userGroup.Name == models.GlobalAdmins {
			return true
		}
		userGroupNames[userGroup.Name] = true
	}

	// if no permissions are defined, assume it is open/allow all
	if len(permissions) == 0 {
		return true
	}

	for _, groupName := range permissions {
		if groupName == "*" || userGroupNames[groupName] {
			return true
		}
	}
	return false
}

// AddSlashCommandRoute upserts route keyed by its Command
func (router Router) AddSlashCommandRoute(route SlashCommandRoute) {
	router.SlashCommandRoutes[route.Command] = route
}

// AddSlashCommandRoutes calls `AddSlashCommandRoute()` for each element in `routes`
func (router Router) AddSlashCommandRoutes(routes []SlashCommandRoute) {
	for _, route := range routes {
		router.AddSlashCommandRoute(route)
	}
}
