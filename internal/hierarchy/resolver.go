package hierarchy

import "sort"

// DescendantClosure computes, for every scope, the scopes reachable by
// following the children relation transitively, including the scope itself.
// The closure is deterministic: the scope first, then a breadth-first walk
// over the ordered children lists. Only edges present in childrenByParent are
// followed, so malformed entries for unrelated scopes cannot affect a scope's
// closure. The result is meaningful only for acyclic input; a visited set
// keeps the walk terminating on cyclic input, which is an unsupported
// condition rather than a defended-against one.
func DescendantClosure(allScopes []string, childrenByParent map[string][]string) map[string][]string {
	closure := make(map[string][]string, len(allScopes))

	for _, scopeName := range allScopes {
		visited := map[string]struct{}{scopeName: {}}
		ordered := []string{scopeName}

		frontier := []string{scopeName}
		for len(frontier) > 0 {
			currentScope := frontier[0]
			frontier = frontier[1:]

			for _, childScope := range childrenByParent[currentScope] {
				if _, alreadyVisited := visited[childScope]; alreadyVisited {
					continue
				}
				visited[childScope] = struct{}{}
				ordered = append(ordered, childScope)
				frontier = append(frontier, childScope)
			}
		}

		closure[scopeName] = ordered
	}

	return closure
}

// ActiveLeavesPerScope unions the raw active-leaf lists of every scope in
// each scope's descendant closure. Results are de-duplicated and sorted;
// scopes missing from rawLeavesByScope contribute nothing.
func ActiveLeavesPerScope(descendantClosure map[string][]string, rawLeavesByScope map[string][]string) map[string][]string {
	leavesByScope := make(map[string][]string, len(descendantClosure))

	for scopeName, closureScopes := range descendantClosure {
		seenLeaves := map[string]struct{}{}
		var unionedLeaves []string

		for _, closureScope := range closureScopes {
			for _, leafName := range rawLeavesByScope[closureScope] {
				if _, alreadySeen := seenLeaves[leafName]; alreadySeen {
					continue
				}
				seenLeaves[leafName] = struct{}{}
				unionedLeaves = append(unionedLeaves, leafName)
			}
		}

		sort.Strings(unionedLeaves)
		leavesByScope[scopeName] = unionedLeaves
	}

	return leavesByScope
}
