package plugin

import "testing"

type mockProvider struct {
	name string
}

func newMockProvider(cfg map[string]any) (any, error) {
	name := "default"
	if n, ok := cfg["name"].(string); ok {
		name = n
	}
	return &mockProvider{name: name}, nil
}

func newRegistry() *Registry {
	return &Registry{plugins: make(map[string]map[string]*Plugin)}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := newRegistry()

	r.Register(&Plugin{Kind: "stt", Name: "mock", Factory: newMockProvider})

	factory, ok := r.Get("stt", "mock")
	if !ok {
		t.Fatal("Expected plugin to be registered")
	}
	if factory == nil {
		t.Fatal("Expected factory to not be nil")
	}

	provider, err := factory(map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	if provider.(*mockProvider).name != "custom" {
		t.Error("Factory did not receive config")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := newRegistry()

	if _, ok := r.Get("stt", "missing"); ok {
		t.Error("Expected lookup miss for unregistered plugin")
	}
	if _, ok := r.Get("nokind", "mock"); ok {
		t.Error("Expected lookup miss for unregistered kind")
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := newRegistry()
	r.Register(&Plugin{Kind: "stt", Name: "mock", Factory: newMockProvider})

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for duplicate registration")
		}
	}()
	r.Register(&Plugin{Kind: "stt", Name: "mock", Factory: newMockProvider})
}

func TestRegistryInvalidRegistrationPanics(t *testing.T) {
	cases := []struct {
		name   string
		plugin *Plugin
	}{
		{"empty kind", &Plugin{Name: "mock", Factory: newMockProvider}},
		{"empty name", &Plugin{Kind: "stt", Factory: newMockProvider}},
		{"nil factory", &Plugin{Kind: "stt", Name: "mock"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistry()
			defer func() {
				if recover() == nil {
					t.Error("Expected panic")
				}
			}()
			r.Register(tc.plugin)
		})
	}
}

func TestRegistryList(t *testing.T) {
	r := newRegistry()
	r.Register(&Plugin{Kind: "tts", Name: "b", Factory: newMockProvider})
	r.Register(&Plugin{Kind: "stt", Name: "a", Factory: newMockProvider})
	r.Register(&Plugin{Kind: "stt", Name: "c", Factory: newMockProvider})

	all := r.List("")
	if len(all) != 3 {
		t.Fatalf("List(\"\") = %d plugins, want 3", len(all))
	}
	// Sorted by kind then name.
	if all[0].Kind != "stt" || all[0].Name != "a" {
		t.Errorf("First plugin = %s/%s, want stt/a", all[0].Kind, all[0].Name)
	}
	if all[2].Kind != "tts" || all[2].Name != "b" {
		t.Errorf("Last plugin = %s/%s, want tts/b", all[2].Kind, all[2].Name)
	}

	stts := r.List("stt")
	if len(stts) != 2 {
		t.Errorf("List(\"stt\") = %d plugins, want 2", len(stts))
	}
}

func TestRegistryClear(t *testing.T) {
	r := newRegistry()
	r.Register(&Plugin{Kind: "stt", Name: "mock", Factory: newMockProvider})

	r.Clear()

	if _, ok := r.Get("stt", "mock"); ok {
		t.Error("Expected registry to be empty after Clear")
	}
}
