package chatclient

// 可用的对话提供方
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// providerEndpoints 提供方到服务端路由的映射
var providerEndpoints = map[string]string{
	ProviderOpenAI: "/api/chat/openai",
	ProviderGemini: "/api/chat",
}

// EndpointFor 返回提供方对应的 API 路径，未知提供方回退到 openai
func EndpointFor(provider string) string {
	if endpoint, ok := providerEndpoints[provider]; ok {
		return endpoint
	}
	return providerEndpoints[ProviderOpenAI]
}
