package config

import "time"

// Config is the root of lazyvolet's TOML configuration file.
type Config struct {
	Public   PublicConfig   `toml:"public"`
	Server   ServerConfig   `toml:"server"`
	Time     TimeConfig     `toml:"time"`
	Motd     MotdConfig     `toml:"motd"`
	Join     JoinConfig     `toml:"join"`
	Lockout  LockoutConfig  `toml:"lockout"`
	RCON     RCONConfig     `toml:"rcon"`
	Advanced AdvancedConfig `toml:"advanced"`
	Config   MetaConfig     `toml:"config"`

	// FilePath is set by the reader to the path the config was loaded
	// from, not read from the file itself. Nothing else in this module
	// reads it; server.properties rewriting and the server command both
	// use Server.Directory.
	FilePath string `toml:"-"`
}

// ConfigVersion is the schema version this build of lazyvolet
// understands. A config whose [config] version differs gets a warning,
// not a hard failure.
const ConfigVersion = "1"

type MetaConfig struct {
	Version string `toml:"version"`
}

type PublicConfig struct {
	Address  string `toml:"address"`
	Version  string `toml:"version"`
	Protocol int    `toml:"protocol"`
}

type ServerConfig struct {
	Address        string `toml:"address"`
	Directory      string `toml:"directory"`
	Command        string `toml:"command"`
	FreezeProcess  bool   `toml:"freeze_process"`
	WakeOnStart    bool   `toml:"wake_on_start"`
	WakeOnCrash    bool   `toml:"wake_on_crash"`
	ProbeOnStart   bool   `toml:"probe_on_start"`
	Forge          bool   `toml:"forge"`
	StartTimeout   int    `toml:"start_timeout"`
	StopTimeout    int    `toml:"stop_timeout"`
	SendProxyV2    bool   `toml:"send_proxy_v2"`
	DropBannedIPs  bool   `toml:"drop_banned_ips"`
}

func (c ServerConfig) StartTimeoutDuration() time.Duration {
	return time.Duration(c.StartTimeout) * time.Second
}

func (c ServerConfig) StopTimeoutDuration() time.Duration {
	return time.Duration(c.StopTimeout) * time.Second
}

type TimeConfig struct {
	SleepAfter         int `toml:"sleep_after"`
	MinimumOnlineTime  int `toml:"minimum_online_time"`
}

func (c TimeConfig) SleepAfterDuration() time.Duration {
	return time.Duration(c.SleepAfter) * time.Second
}

func (c TimeConfig) MinimumOnlineTimeDuration() time.Duration {
	return time.Duration(c.MinimumOnlineTime) * time.Second
}

type MotdConfig struct {
	Sleeping   string `toml:"sleeping"`
	Starting   string `toml:"starting"`
	FromServer bool   `toml:"from_server"`
}

type JoinConfig struct {
	Methods []string          `toml:"methods"`
	Kick    KickConfig        `toml:"kick"`
	Hold    HoldConfig        `toml:"hold"`
	Forward ForwardJoinConfig `toml:"forward"`
	Lobby   LobbyConfig       `toml:"lobby"`
}

type KickConfig struct {
	Message string `toml:"message"`
}

type HoldConfig struct {
	Timeout int `toml:"timeout"`
}

func (c HoldConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type ForwardJoinConfig struct {
	Address   string `toml:"address"`
	SendProxy bool   `toml:"send_proxy_v2"`
}

type LobbyConfig struct {
	Timeout    int    `toml:"timeout"`
	Message    string `toml:"message"`
	ReadySound string `toml:"ready_sound"`
}

func (c LobbyConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type LockoutConfig struct {
	Enabled bool   `toml:"enabled"`
	Message string `toml:"message"`
}

type RCONConfig struct {
	Enabled           bool   `toml:"enabled"`
	Port              int    `toml:"port"`
	Password          string `toml:"password"`
	RandomizePassword bool   `toml:"randomize_password"`
	SendProxyV2       bool   `toml:"send_proxy_v2"`
}

type AdvancedConfig struct {
	RewriteServerProperties bool   `toml:"rewrite_server_properties"`
	MetricsBind             string `toml:"metrics_bind"`
	HotSwap                 bool   `toml:"hot_swap"`
}

// Default returns the configuration written by `lazyvolet config
// generate`, mirroring the teacher's DefaultServerConfig/
// DefaultUltravioletConfig pattern of one function producing sane
// zero-friction defaults.
func Default() Config {
	return Config{
		Public: PublicConfig{
			Address:  "0.0.0.0:25565",
			Version:  "1.20.1",
			Protocol: 763,
		},
		Server: ServerConfig{
			Address:      "127.0.0.1:25566",
			Directory:    "/path/to/server",
			Command:      "java -Xmx1G -jar server.jar --nogui",
			WakeOnStart:  true,
			WakeOnCrash:  true,
			ProbeOnStart: true,
			StartTimeout: 300,
			StopTimeout:  30,
		},
		Time: TimeConfig{
			SleepAfter:        60,
			MinimumOnlineTime: 60,
		},
		Motd: MotdConfig{
			Sleeping: "☠ Server is sleeping\n§2☻ Join to start it up",
			Starting: "§2☻ Server is starting...\n§7⌛ Please wait...",
		},
		Join: JoinConfig{
			Methods: []string{"hold", "kick"},
			Kick: KickConfig{
				Message: "Server is starting... §c♥§r\n\nThis may take some time.\n\nPlease try to reconnect in a minute.",
			},
			Hold: HoldConfig{Timeout: 30},
			Lobby: LobbyConfig{
				Timeout:    60,
				Message:    "Server is starting {motd_starting}\n§7⌛ Please wait...",
				ReadySound: "block.note_block.chime",
			},
		},
		Lockout: LockoutConfig{
			Message: "Server is locked down, please try again later.",
		},
		RCON: RCONConfig{
			Port:              25575,
			RandomizePassword: true,
		},
		Advanced: AdvancedConfig{
			HotSwap: true,
		},
		Config: MetaConfig{Version: ConfigVersion},
	}
}
