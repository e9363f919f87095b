package app

import (
	"context"
	"fmt"

	"github.com/allisson/kms-envelope/internal/config"
	envelopeDomain "github.com/allisson/kms-envelope/internal/envelope/domain"
	envelopeRepository "github.com/allisson/kms-envelope/internal/envelope/repository"
	envelopeService "github.com/allisson/kms-envelope/internal/envelope/service"
	envelopeUsecase "github.com/allisson/kms-envelope/internal/envelope/usecase"
)

// KMSClient returns the AWS KMS client used by the awskms key provider.
func (c *Container) KMSClient() (envelopeService.KMSClient, error) {
	var err error
	c.kmsClientInit.Do(func() {
		if c.kmsClient != nil {
			return
		}
		c.kmsClient, err = c.initKMSClient()
		if err != nil {
			c.initErrors["kmsClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["kmsClient"]; exists {
		return nil, storedErr
	}
	return c.kmsClient, nil
}

// KMSService returns the gocloud.dev/secrets keeper service.
func (c *Container) KMSService() envelopeService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = c.initKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() envelopeService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = c.initAEADManager()
	})
	return c.aeadManager
}

// KeyProvider returns the key provider selected by KMS_PROVIDER.
func (c *Container) KeyProvider() (envelopeService.KeyProvider, error) {
	var err error
	c.keyProviderInit.Do(func() {
		c.keyProvider, err = c.initKeyProvider()
		if err != nil {
			c.initErrors["keyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyProvider"]; exists {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

// EnvelopeCipher returns the envelope cipher for the default cipher suite.
func (c *Container) EnvelopeCipher() envelopeService.EnvelopeCipher {
	c.envelopeCipherInit.Do(func() {
		c.envelopeCipher = c.initEnvelopeCipher()
	})
	return c.envelopeCipher
}

// ObjectRepository returns the ciphertext repository: a bucket when
// OUTPUT_BUCKET_URL is set, local files otherwise.
func (c *Container) ObjectRepository() (envelopeUsecase.ObjectRepository, error) {
	var err error
	c.objectRepoInit.Do(func() {
		c.objectRepo, err = c.initObjectRepository()
		if err != nil {
			c.initErrors["objectRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["objectRepo"]; exists {
		return nil, storedErr
	}
	return c.objectRepo, nil
}

// EncryptUseCase returns the envelope encryption use case.
func (c *Container) EncryptUseCase() (envelopeUsecase.EncryptUseCase, error) {
	var err error
	c.encryptUseCaseInit.Do(func() {
		c.encryptUseCase, err = c.initEncryptUseCase()
		if err != nil {
			c.initErrors["encryptUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptUseCase"]; exists {
		return nil, storedErr
	}
	return c.encryptUseCase, nil
}

// initKMSClient creates an AWS KMS client from the default credential chain.
func (c *Container) initKMSClient() (envelopeService.KMSClient, error) {
	client, err := envelopeService.NewAWSKMSClient(context.Background(), c.config.KMSRegion, c.config.KMSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create kms client: %w", err)
	}
	return client, nil
}

// initKMSService creates the KMS service for opening keepers.
func (c *Container) initKMSService() envelopeService.KMSService {
	return envelopeService.NewKMSService()
}

// initAEADManager creates the AEAD manager service.
func (c *Container) initAEADManager() envelopeService.AEADManager {
	return envelopeService.NewAEADManager()
}

// initKeyProvider creates the configured key provider, wrapped with metrics when enabled.
func (c *Container) initKeyProvider() (envelopeService.KeyProvider, error) {
	var keyProvider envelopeService.KeyProvider

	switch c.config.KMSProvider {
	case config.ProviderAWSKMS:
		client, err := c.KMSClient()
		if err != nil {
			return nil, err
		}
		keyProvider = envelopeService.NewAWSKMSKeyProvider(client)
	case config.ProviderKeeper:
		keyProvider = envelopeService.NewKeeperKeyProvider(c.KMSService())
	default:
		return nil, fmt.Errorf("unsupported kms provider: %q", c.config.KMSProvider)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for key provider: %w", err)
		}
		return envelopeService.NewKeyProviderWithMetrics(keyProvider, businessMetrics), nil
	}

	return keyProvider, nil
}

// initEnvelopeCipher creates the envelope cipher.
func (c *Container) initEnvelopeCipher() envelopeService.EnvelopeCipher {
	return envelopeService.NewEnvelopeCipher(envelopeDomain.DefaultCipherSuite(), c.AEADManager())
}

// initObjectRepository creates the ciphertext repository.
func (c *Container) initObjectRepository() (envelopeUsecase.ObjectRepository, error) {
	if c.config.OutputBucketURL == "" {
		return envelopeRepository.NewFileObjectRepository(c.config.OutputSuffix), nil
	}

	repo, err := envelopeRepository.OpenBlobObjectRepository(
		context.Background(),
		c.config.OutputBucketURL,
		c.config.OutputSuffix,
	)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.closers = append(c.closers, repo)
	c.mu.Unlock()

	return repo, nil
}

// initEncryptUseCase creates the encrypt use case with all its dependencies.
func (c *Container) initEncryptUseCase() (envelopeUsecase.EncryptUseCase, error) {
	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for encrypt use case: %w", err)
	}

	objectRepo, err := c.ObjectRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get object repository for encrypt use case: %w", err)
	}

	baseUseCase := envelopeUsecase.NewEncryptUseCase(
		envelopeDomain.DefaultCipherSuite(),
		keyProvider,
		c.EnvelopeCipher(),
		objectRepo,
		c.config.KeyIDRule(),
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for encrypt use case: %w", err)
		}
		return envelopeUsecase.NewEncryptUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
