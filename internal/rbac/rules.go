package rbac

// Default role policy. Players drive their own sessions and read public
// surfaces; admins run the platform.
var RolePermissions = map[string][]string{
	"player": {
		"poems:view",
		"sessions:create",
		"sessions:answer",
		"sessions:submit",
		"sessions:view-own",
		"ranking:view",
		"groups:view",
		"groups:create",
		"groups:join",
		"groups:manage", // ownership is checked in the store
	},
	"admin": {
		"*", // everything
	},
}
