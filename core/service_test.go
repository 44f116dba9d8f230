package core

import "testing"

type stubService struct{ BaseService }

func TestServiceRegistryNamesSortedRegardlessOfRegistrationOrder(t *testing.T) {
	r := NewServiceRegistry()
	r.Register("governance", func(sdk ServiceSDK) (Service, error) { return &stubService{}, nil })
	r.Register("asset", func(sdk ServiceSDK) (Service, error) { return &stubService{}, nil })
	r.Register("multisig", func(sdk ServiceSDK) (Service, error) { return &stubService{}, nil })

	got := r.Names()
	want := []string{"asset", "governance", "multisig"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestServiceRegistryBuildUnknownNameErrors(t *testing.T) {
	r := NewServiceRegistry()
	if _, err := r.Build("nope", nil); err == nil {
		t.Fatalf("expected building an unregistered service to error")
	}
}

func TestServiceRegistryBuildInvokesFactoryWithSDK(t *testing.T) {
	r := NewServiceRegistry()
	var gotSDK ServiceSDK
	sentinel := newTestSDKForContainers()
	r.Register("probe", func(sdk ServiceSDK) (Service, error) {
		gotSDK = sdk
		return &stubService{}, nil
	})
	svc, err := r.Build("probe", sentinel)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if svc == nil {
		t.Fatalf("expected a non-nil service")
	}
	if gotSDK != sentinel {
		t.Fatalf("expected factory to receive the sdk passed to Build")
	}
}

func TestServiceRegistryRegisterOverwritesPreviousFactory(t *testing.T) {
	r := NewServiceRegistry()
	r.Register("x", func(sdk ServiceSDK) (Service, error) { return nil, nil })
	called := false
	r.Register("x", func(sdk ServiceSDK) (Service, error) {
		called = true
		return &stubService{}, nil
	})
	if _, err := r.Build("x", nil); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !called {
		t.Fatalf("expected the second registration to win")
	}
}

func TestBaseServiceDefaultsAreNoOpsAndReturnNotFoundMethod(t *testing.T) {
	var svc stubService

	if err := svc.Genesis("{}"); err != nil {
		t.Fatalf("expected Genesis default to be a no-op, got %v", err)
	}
	svc.HookBefore(nil)
	svc.HookAfter(nil)
	svc.TxHookBefore(nil)
	svc.TxHookAfter(nil)

	if resp := svc.Write(nil); !resp.IsError() || resp.Code != ErrCodeNotFoundMethod {
		t.Fatalf("expected Write default to report not-found-method, got %+v", resp)
	}
	if resp := svc.Read(nil); !resp.IsError() || resp.Code != ErrCodeNotFoundMethod {
		t.Fatalf("expected Read default to report not-found-method, got %+v", resp)
	}
}
