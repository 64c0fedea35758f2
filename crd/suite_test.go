package crd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	apiextv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/client-go/rest"
	kclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/envtest"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// CRDSuite stands up a real envtest API server once per suite, since
// installer logic needs genuine CreateOrPatch semantics a fake client
// can't reproduce.
type CRDSuite struct {
	suite.Suite
	k8sConfig *rest.Config
	k8sClient kclient.Client
}

func (s *CRDSuite) Context() context.Context { return context.Background() }

func (s *CRDSuite) SetupSuite() {
	var err error
	t := s.T()

	logf.SetLogger(zap.New(zap.UseDevMode(true)))

	var testEnv envtest.Environment
	s.k8sConfig, err = testEnv.Start()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, testEnv.Stop())
	})

	s.k8sClient, err = kclient.New(s.k8sConfig, kclient.Options{Scheme: scheme})
	require.NoError(t, err)
}

func (s *CRDSuite) TearDownTest() {
	require.NoError(s.T(), s.k8sClient.DeleteAllOf(s.Context(), &apiextv1.CustomResourceDefinition{}))
}
