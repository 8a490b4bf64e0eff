package discovery

import (
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/consul/api"
)

// Registration is a live Consul registration; call Deregister on shutdown.
type Registration struct {
	client *api.Client
	id     string
}

// RegisterService 将 HTTP 服务注册到 Consul, Consul 会定期请求 healthPath 检查存活
func RegisterService(serviceName string, servicePort int, consulAddr, healthPath string) (*Registration, error) {
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	localIP, err := getOutboundIP()
	if err != nil {
		return nil, err
	}

	// ID 必须唯一，通常使用 "服务名-IP-端口"
	serviceID := ServiceID(serviceName, localIP, servicePort)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Port:    servicePort,
		Address: localIP,
		Tags:    []string{"storefront", "http"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", localIP, servicePort, healthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}

	log.Printf("Service Registered: %s (ID: %s) at %s:%d", serviceName, serviceID, localIP, servicePort)
	return &Registration{client: client, id: serviceID}, nil
}

func (r *Registration) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.id)
}

func ServiceID(name, ip string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, ip, port)
}

// getOutboundIP 获取本机对外 IP
// Docker 或局域网里不能注册 127.0.0.1，否则 Consul 的健康检查找不到
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
