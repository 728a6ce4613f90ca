package engine

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// The registry holds the compute engine implementations available to the
// harness binary. Engine implementations live outside this repository and
// register themselves during package initialization via a side-effect
// import.

var (
	registryMutex sync.Mutex
	registry      = map[string]Engine{}
)

// Register binds an engine implementation to the given name. Names are not
// case-sensitive. A panic is triggered if the engine is nil or the name is
// already taken, since both indicate broken initialization code.
func Register(name string, engine Engine) {
	key := strings.ToLower(name)
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if engine == nil {
		panic(fmt.Sprintf("invalid initialization: cannot register nil engine for `%s`", key))
	}
	if _, found := registry[key]; found {
		panic(fmt.Sprintf("invalid initialization: multiple engines registered for `%s`", key))
	}
	registry[key] = engine
}

// Get looks up an engine by name (case-insensitive). The result is nil if no
// engine was registered under the given name.
func Get(name string) Engine {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	return registry[strings.ToLower(name)]
}

// RegisteredNames lists the names of all registered engines.
func RegisteredNames() []string {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	return maps.Keys(registry)
}
