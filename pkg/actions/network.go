/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package actions

import (
	"context"
	"fmt"
)

// Service is a controller network service configurable through
// ManagerNetworkProtocol.
type Service int

const (
	ServiceHTTP Service = iota
	ServiceHTTPS
	ServiceIPMI
	ServiceKVMIP
	ServiceSNMP
	ServiceSSDP
	ServiceSSH
	ServiceTelnet
	ServiceVirtualMedia
)

// Services lists every supported service.
func Services() []Service {
	return []Service{
		ServiceHTTP, ServiceHTTPS, ServiceIPMI, ServiceKVMIP, ServiceSNMP,
		ServiceSSDP, ServiceSSH, ServiceTelnet, ServiceVirtualMedia,
	}
}

// String returns the ManagerNetworkProtocol property name.
func (s Service) String() string {
	switch s {
	case ServiceHTTP:
		return "HTTP"
	case ServiceHTTPS:
		return "HTTPS"
	case ServiceIPMI:
		return "IPMI"
	case ServiceKVMIP:
		return "KVMIP"
	case ServiceSNMP:
		return "SNMP"
	case ServiceSSDP:
		return "SSDP"
	case ServiceSSH:
		return "SSH"
	case ServiceTelnet:
		return "Telnet"
	case ServiceVirtualMedia:
		return "VirtualMedia"
	}

	return fmt.Sprintf("Service(%d)", int(s))
}

// HasPort reports whether the service accepts a port number.
func (s Service) HasPort() bool {
	switch s {
	case ServiceHTTP, ServiceHTTPS, ServiceKVMIP, ServiceSNMP, ServiceSSH, ServiceTelnet:
		return true
	case ServiceIPMI, ServiceSSDP, ServiceVirtualMedia:
		return false
	}

	return false
}

// ParseService maps a property name onto Service.
func ParseService(name string) (Service, error) {
	for _, s := range Services() {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidService, name)
}

// SetNetworkProtocol enables or disables svc on every manager. port is
// ignored for services without a port.
func (a *Actions) SetNetworkProtocol(ctx context.Context, svc Service, enabled bool, port int) ([]string, error) {
	const name = "SetNetworkProtocol"

	if svc < ServiceHTTP || svc > ServiceVirtualMedia {
		return nil, a.fail(name, fmt.Errorf("%w: %s", ErrInvalidService, svc))
	}

	settings := map[string]interface{}{"ProtocolEnabled": enabled}

	if svc.HasPort() {
		if port < 1 || port > 65535 {
			return nil, a.fail(name, fmt.Errorf("%w: %d for %s", ErrInvalidPort, port, svc))
		}

		settings["Port"] = port
	}

	sink := a.section(name)

	managers, err := a.collectionMembers(ctx, "Managers", sink)
	if err != nil {
		return nil, a.fail(name, err)
	}

	updated := make([]string, 0, len(managers))

	for _, mgr := range managers {
		link, ok := mgr.Link("NetworkProtocol")
		if !ok {
			return updated, a.fail(name, fmt.Errorf("%w: NetworkProtocol on %s", errMissingLink, mgr.Path))
		}

		if _, err := a.client.PatchIfMatch(ctx, link, map[string]interface{}{svc.String(): settings}, sink); err != nil {
			return updated, a.fail(name, err)
		}

		updated = append(updated, link)
	}

	a.log.Info().Str("service", svc.String()).Bool("enabled", enabled).Msg("Network protocol updated")

	return updated, nil
}
