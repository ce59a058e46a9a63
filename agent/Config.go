package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/samuelfneumann/naf/environment"
	"github.com/samuelfneumann/naf/metrics"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes. Scalar
	// training metrics are written to sink.
	CreateAgent(env environment.Environment, seed uint64,
		sink metrics.Sink) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}

// Type represents a specific type of an agent Config
type Type string

// Agent types that can be registered
const (
	NAF Type = "NAF"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be created.
//
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type agentType
// are deserialized into the concrete type of config.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// Registered returns the registered agent types
func Registered() []Type {
	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// TypedConfig implements functionality for typing a Config. In this
// way, a Config can explicitly have its type stored so that when
// deserializing the Config, we can deserialize it into its concrete
// type without knowing beforehand or declaring beforehand a variable
// of its concrete type.
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig types the argument Config and returns it as a
// TypedConfig which explicitly holds its Type.
func NewTypedConfig(c Config) TypedConfig {
	return TypedConfig{Type: c.Type(), Config: c}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	var typeName Type
	if err := json.Unmarshal(m["Type"], &typeName); err != nil {
		return fmt.Errorf("unmarshalJSON: could not decode agent type: %v",
			err)
	}

	ty, found := registeredTypes[typeName]
	if !found {
		return fmt.Errorf("unmarshalJSON: unregistered agent type %v",
			typeName)
	}

	// Decode on top of a copy of the current Config so that fields
	// missing from data keep their values
	value := reflect.New(ty)
	if t.Config != nil && reflect.TypeOf(t.Config) == ty {
		value.Elem().Set(reflect.ValueOf(t.Config))
	}
	if raw, ok := m["Config"]; ok {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: could not decode %v "+
				"configuration: %v", typeName, err)
		}
	}

	t.Type = typeName
	t.Config = value.Elem().Interface().(Config)
	return nil
}
