package walker

// state is one step of the traversal state machine.
type state int

const (
	// stateInit is the pre-traversal state.
	stateInit state = iota

	// stateFetchingNode retrieves the current chapter's first page.
	stateFetchingNode

	// stateResolvingPages discovers the chapter's sub-page URLs.
	stateResolvingPages

	// stateAssemblingPages fetches sub-pages and merges their text.
	stateAssemblingPages

	// statePersisting writes the assembled chapter to the sink.
	statePersisting

	// stateAdvancing paces and follows the next-chapter pointer.
	stateAdvancing

	// stateTerminated is the terminal state of a completed chain.
	stateTerminated

	// stateAborted is the terminal state after the failure budget is
	// exhausted.
	stateAborted
)

// String returns the state name for log output.
func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateFetchingNode:
		return "fetching_node"
	case stateResolvingPages:
		return "resolving_pages"
	case stateAssemblingPages:
		return "assembling_pages"
	case statePersisting:
		return "persisting"
	case stateAdvancing:
		return "advancing"
	case stateTerminated:
		return "terminated"
	case stateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
