package conf

// Bootstrap webhook 服务的启动配置
type Bootstrap struct {
	Server *Server
	Radar  *Radar
}

// Server HTTP 服务配置
type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

// Radar 引擎配置，与 pkg/config.Config 字段一一对应
type Radar struct {
	Llm         *LLM         `json:"llm"`
	Reddit      *Reddit      `json:"reddit"`
	Search      *Search      `json:"search"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Db          *DB          `json:"db"`
}

type LLM struct {
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
	Model   string `json:"model"`
}

type Reddit struct {
	ClientId     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	UserAgent    string   `json:"user_agent"`
	Subreddits   []string `json:"subreddits"`
}

type Search struct {
	Provider string   `json:"provider"`
	Tavily   *Tavily  `json:"tavily"`
	Searxng  *SearXNG `json:"searxng"`
}

type Tavily struct {
	ApiKey string `json:"api_key"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type DB struct {
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
