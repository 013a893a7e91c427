package auth

// Action names an operation gated by the role policy.
type Action string

const (
	ActionShop           Action = "shop" // cart, wishlist, own orders and reviews
	ActionManageProfile  Action = "profile:manage"
	ActionManageCatalog  Action = "catalog:manage"
	ActionManageCoupons  Action = "coupons:manage"
	ActionManageUsers    Action = "users:manage"
	ActionManageOrders   Action = "orders:manage"
	ActionMarkPaid       Action = "orders:pay"
	ActionMarkDelivered  Action = "orders:deliver"
	ActionModerateReview Action = "reviews:moderate"
)

var policy = map[Role]map[Action]bool{
	RoleUser: {
		ActionShop:          true,
		ActionManageProfile: true,
	},
	RoleAdmin: {
		ActionShop:           true,
		ActionManageProfile:  true,
		ActionManageCatalog:  true,
		ActionManageCoupons:  true,
		ActionManageUsers:    true,
		ActionManageOrders:   true,
		ActionMarkPaid:       true,
		ActionMarkDelivered:  true,
		ActionModerateReview: true,
	},
}

// Allow is the authorization policy: it reports whether role may perform
// action. Unknown roles and actions are denied.
func Allow(role Role, action Action) bool {
	return policy[role][action]
}
