package rules

// Router holds the three ordered rule lists compiled at startup:
// admin-console commands, gameplay events, and keybinding-triggered
// echo commands. It is the one registry for dispatch; it is constructed
// once and passed by reference to every component needing it.
//
// Gameplay and keybind rules are checked per game line, in the order
// they were registered (gameplay first). Admin rules are checked per
// operator-typed line through a separate entry point.
type Router struct {
	admin   []Rule
	game    []Rule
	keybind []Rule

	merged []Rule // game + keybind, rebuilt on registration
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// RegisterAdmin appends rules to the admin-console list.
func (r *Router) RegisterAdmin(list ...Rule) {
	r.admin = append(r.admin, list...)
}

// RegisterGame appends rules to the gameplay list.
func (r *Router) RegisterGame(list ...Rule) {
	r.game = append(r.game, list...)
	r.merged = nil
}

// RegisterKeybind appends rules to the keybinding list.
func (r *Router) RegisterKeybind(list ...Rule) {
	r.keybind = append(r.keybind, list...)
	r.merged = nil
}

// GameRules returns the merged, order-preserving gameplay + keybind
// list consumed by the main loop.
func (r *Router) GameRules() []Rule {
	if r.merged == nil {
		r.merged = make([]Rule, 0, len(r.game)+len(r.keybind))
		r.merged = append(r.merged, r.game...)
		r.merged = append(r.merged, r.keybind...)
	}
	return r.merged
}

// DispatchGame routes one game line. Returns false if no rule matched;
// the caller logs the line as ignored.
func (r *Router) DispatchGame(text string) bool {
	return Dispatch(text, r.GameRules())
}

// DispatchAdmin routes one operator-typed line.
func (r *Router) DispatchAdmin(text string) bool {
	return Dispatch(text, r.admin)
}
