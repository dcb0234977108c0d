package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory wires the bun-backed stores from one shared connection.
// It accepts either a raw *bun.DB or a go-persistence-bun client.
type RepositoryFactory struct {
	db *bun.DB

	organizationStore    *OrganizationStore
	credentialStore      *CredentialStore
	webhookDeliveryStore *WebhookDeliveryStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.organizationStore != nil && f.credentialStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) OrganizationStore() *OrganizationStore {
	if f == nil {
		return nil
	}
	return f.organizationStore
}

func (f *RepositoryFactory) CredentialStore() *CredentialStore {
	if f == nil {
		return nil
	}
	return f.credentialStore
}

func (f *RepositoryFactory) WebhookDeliveryStore() *WebhookDeliveryStore {
	if f == nil {
		return nil
	}
	return f.webhookDeliveryStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	organizationRepo := repository.NewRepository[*organizationRecord](f.db, organizationHandlers())
	if validator, ok := organizationRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid organization repository wiring: %w", err)
		}
	}

	credentialRepo := repository.NewRepository[*credentialRecord](f.db, credentialHandlers())
	if validator, ok := credentialRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid credential repository wiring: %w", err)
		}
	}

	webhookDeliveryRepo := repository.NewRepository[*webhookDeliveryRecord](f.db, webhookDeliveryHandlers())
	if validator, ok := webhookDeliveryRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid webhook delivery repository wiring: %w", err)
		}
	}

	f.organizationStore = &OrganizationStore{
		db:   f.db,
		repo: organizationRepo,
	}
	f.credentialStore = &CredentialStore{
		db:   f.db,
		repo: credentialRepo,
	}
	f.webhookDeliveryStore = &WebhookDeliveryStore{
		db:   f.db,
		repo: webhookDeliveryRepo,
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
