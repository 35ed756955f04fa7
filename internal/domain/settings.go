package domain

import (
	"net"
	"strconv"
)

// DefaultSSHPort — порт SSH по умолчанию.
const DefaultSSHPort = 22

// ServerSettings — параметры подключения к целевому серверу.
//
// Поддерживается только аутентификация по паролю.
type ServerSettings struct {
	ID       string `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
}

// Address возвращает адрес в формате host:port.
func (s *ServerSettings) Address() string {
	port := s.Port
	if port <= 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(port))
}

// HospitalSettings — настройки площадки (больницы), для которой
// выполняется развёртывание. Доступны в шаблонах как .Settings.
type HospitalSettings struct {
	ID                  string `json:"id" mapstructure:"id"`
	Name                string `json:"name" mapstructure:"name"`
	MainServerIP        string `json:"mainServerIp" mapstructure:"mainServerIp"`
	DatabaseServerIP    string `json:"databaseServerIp" mapstructure:"databaseServerIp"`
	RedisServerIP       string `json:"redisServerIp" mapstructure:"redisServerIp"`
	MinioServerIP       string `json:"minioServerIp" mapstructure:"minioServerIp"`
	ReportServerIP      string `json:"reportServerIp" mapstructure:"reportServerIp"`
	FilePreviewServerIP string `json:"filePreviewServerIp" mapstructure:"filePreviewServerIp"`
	DashboardServerIP   string `json:"dashboardServerIp" mapstructure:"dashboardServerIp"`
	BigScreenServerIP   string `json:"bigScreenServerIp" mapstructure:"bigScreenServerIp"`
}
