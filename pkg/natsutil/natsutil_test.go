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

package natsutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/bmcwatch/pkg/models"
)

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:     "adds subject when list empty",
			subjects: nil,
			subject:  "bmcwatch.power.alert",
			want:     []string{"bmcwatch.power.alert"},
		},
		{
			name:     "keeps list when wildcard matches",
			subjects: []string{"bmcwatch.power.*"},
			subject:  "bmcwatch.power.alert",
			want:     []string{"bmcwatch.power.*"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"bmcwatch.>"},
			subject:  "bmcwatch.power.alert",
			want:     []string{"bmcwatch.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"events.syslog.*"},
			subject:  "bmcwatch.power.alert",
			want:     []string{"events.syslog.*", "bmcwatch.power.alert"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pattern  string
		subject  string
		expected bool
	}{
		{"exact match", "bmcwatch.power.alert", "bmcwatch.power.alert", true},
		{"single wildcard", "bmcwatch.*.alert", "bmcwatch.power.alert", true},
		{"greater wildcard", "bmcwatch.>", "bmcwatch.power.alert", true},
		{"greater needs a token", "bmcwatch.>", "bmcwatch", false},
		{"length mismatch", "bmcwatch.*", "bmcwatch.power.alert", false},
		{"literal mismatch", "bmcwatch.power.remediation", "bmcwatch.power.alert", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestTLSConfigRequiresFiles(t *testing.T) {
	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrTLSConfigRequired)

	_, err = TLSConfig(&models.TLSConfig{CertFile: "c.pem"})
	require.ErrorIs(t, err, ErrTLSConfigRequired)
}

func TestPublishToJetStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	srv := runJetStreamServer(t)
	t.Cleanup(srv.Shutdown)

	nc, err := ConnectWithSecurity(srv.ClientURL(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	pub, err := CreateEventPublisherWithDomain(ctx, nc, "", "BMCWATCH", []string{"bmcwatch.power.*"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "BMCWATCH", pub.Stream())

	now := time.Now().UTC()
	require.NoError(t, pub.Publish(ctx, &models.CloudEvent{
		SpecVersion: "1.0",
		ID:          "evt-1",
		Source:      "bmcwatch/powermon",
		Type:        "com.carverauto.bmcwatch.power.alert",
		Subject:     "bmcwatch.power.alert",
		Time:        &now,
		Data:        map[string]interface{}{"host": "r740"},
	}))

	// a second call extends the existing stream instead of recreating it
	_, err = CreateEventPublisherWithDomain(ctx, nc, "", "BMCWATCH", []string{"bmcwatch.audit.>"}, nil)
	require.NoError(t, err)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	stream, err := js.Stream(ctx, "BMCWATCH")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bmcwatch.power.*", "bmcwatch.audit.>"}, stream.CachedInfo().Config.Subjects)

	msg, err := stream.GetLastMsgForSubject(ctx, "bmcwatch.power.alert")
	require.NoError(t, err)

	var got models.CloudEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "evt-1", got.ID)
}

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	}

	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	return srv
}
