package health

// Service encapsulates health-related checks.
type Service struct {
	providerName string
	stores       []string
}

// NewService constructs a new health service.
func NewService(providerName string, stores []string) *Service {
	return &Service{providerName: providerName, stores: stores}
}

// Status returns a simple health payload describing the configured stack.
func (s *Service) Status() map[string]any {
	return map[string]any{
		"ok":             true,
		"provider":       s.providerName,
		"profile_stores": s.stores,
	}
}
