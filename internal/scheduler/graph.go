package scheduler

// graph is the dependency graph of a single request.
type graph struct {
	dependents map[string][]string // title -> titles that depend on it
	inDegree   map[string]int      // title -> unmet dependency count
}

// buildGraph adds one edge dep -> task and one in-degree increment per listed
// dependency occurrence. Duplicate entries therefore count twice on both sides.
// Dependencies on unknown titles still get edges; validateDependencies rejects them.
func buildGraph(tasks []TaskInput) *graph {
	g := &graph{
		dependents: make(map[string][]string, len(tasks)),
		inDegree:   make(map[string]int, len(tasks)),
	}

	for _, task := range tasks {
		if _, exists := g.inDegree[task.Title]; !exists {
			g.dependents[task.Title] = []string{}
			g.inDegree[task.Title] = 0
		}
	}

	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			g.dependents[dep] = append(g.dependents[dep], task.Title)
			g.inDegree[task.Title]++
		}
	}

	return g
}

// indexTasks maps titles to their tasks. Returns DuplicateTitleError on the
// first title seen twice.
func indexTasks(tasks []TaskInput) (map[string]TaskInput, error) {
	byTitle := make(map[string]TaskInput, len(tasks))
	for _, task := range tasks {
		if _, exists := byTitle[task.Title]; exists {
			return nil, &DuplicateTitleError{Title: task.Title}
		}
		byTitle[task.Title] = task
	}
	return byTitle, nil
}

// validateDependencies checks every dependency title resolves to a task.
// Tasks and dependencies are checked in input order so the reported name is stable.
func validateDependencies(tasks []TaskInput, byTitle map[string]TaskInput) error {
	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			if _, exists := byTitle[dep]; !exists {
				return &MissingDependencyError{Task: task.Title, Dependency: dep}
			}
		}
	}
	return nil
}

// frame is one entry of the explicit DFS stack.
type frame struct {
	title string
	next  int // index of the next dependent to visit
}

// detectCycle runs a depth-first traversal from every task in input order,
// skipping tasks already fully visited. A dependent found on the current path
// closes a cycle.
func detectCycle(tasks []TaskInput, g *graph) error {
	visited := make(map[string]bool, len(tasks))
	onPath := make(map[string]int, len(tasks)) // title -> stack position

	for _, task := range tasks {
		if visited[task.Title] {
			continue
		}

		stack := []frame{{title: task.Title}}
		visited[task.Title] = true
		onPath[task.Title] = 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.dependents[top.title]

			if top.next >= len(edges) {
				// All dependents explored, leave the path
				delete(onPath, top.title)
				stack = stack[:len(stack)-1]
				continue
			}

			neighbor := edges[top.next]
			top.next++

			if pos, ok := onPath[neighbor]; ok {
				return &CircularDependencyError{Path: cyclePath(stack[pos:], neighbor)}
			}
			if visited[neighbor] {
				continue
			}

			visited[neighbor] = true
			onPath[neighbor] = len(stack)
			stack = append(stack, frame{title: neighbor})
		}
	}

	return nil
}

// cyclePath renders the stack segment forming a cycle, closed by the repeated title.
func cyclePath(segment []frame, closing string) []string {
	path := make([]string, 0, len(segment)+1)
	for _, f := range segment {
		path = append(path, f.title)
	}
	return append(path, closing)
}
