package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

type NamedDatabase struct {
	DSN string
}

type ServiceWithNamedDB struct {
	Master *NamedDatabase `di:"master"`
	Slave  *NamedDatabase `di:"slave"`
}

type ServiceWithNamedOptional struct {
	Required *NamedDatabase `di:"master"`
	Optional *NamedDatabase `di:"missing,?"`
}

func TestNamedInjection(t *testing.T) {
	c := di.NewContainer()

	di.Register[*NamedDatabase](c, di.WithName("master"), di.WithValue(&NamedDatabase{DSN: "master_dsn"}))
	di.Register[*NamedDatabase](c, di.WithName("slave"), di.WithValue(&NamedDatabase{DSN: "slave_dsn"}))
	di.Register[*ServiceWithNamedDB](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*ServiceWithNamedDB](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if svc.Master.DSN != "master_dsn" {
		t.Errorf("Expected master DSN, got %s", svc.Master.DSN)
	}
	if svc.Slave.DSN != "slave_dsn" {
		t.Errorf("Expected slave DSN, got %s", svc.Slave.DSN)
	}
}

func TestNamedOptionalInjection(t *testing.T) {
	c := di.NewContainer()

	di.Register[*NamedDatabase](c, di.WithName("master"), di.WithValue(&NamedDatabase{DSN: "master_dsn"}))
	di.Register[*ServiceWithNamedOptional](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*ServiceWithNamedOptional](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if svc.Required == nil {
		t.Error("Required field is nil")
	}
	if svc.Optional != nil {
		t.Error("Optional field should be nil")
	}
}

func TestNamedMissingRequired(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceWithNamedDB](c, di.WithTransient())

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := di.Resolve[*ServiceWithNamedDB](c); err == nil {
		t.Fatal("Expected resolve to fail for missing named dependency")
	}
}
