package drive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/sftpdrive/internal/sftp/sftptest"
)

func TestClientOverSSH(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "drive", Password: "secret"})

	client, err := New(ConnectionConfig{
		Host:     server.Host,
		Port:     server.Port,
		Username: "drive",
		Password: "secret",
		Timeout:  5 * time.Second,
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect() })

	ctx := context.Background()
	require.NoError(t, client.WriteString(ctx, "/reports/today.txt", "42"))
	require.NoError(t, client.Move(ctx, "/reports/today.txt", "/archive/today.txt"))

	data, err := client.Read(ctx, "/archive/today.txt")
	require.NoError(t, err)
	require.Equal(t, "42", string(data))

	entries, err := client.List("/archive").Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "/archive/today.txt", entries[0].Location)
}

func TestClientOverSSHWrongPassword(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "drive", Password: "secret"})

	client, err := New(ConnectionConfig{
		Host:     server.Host,
		Port:     server.Port,
		Username: "drive",
		Password: "nope",
	}, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	err = client.Connect(context.Background())
	require.True(t, IsKind(err, KindConnection))
	require.False(t, client.IsConnected(context.Background()))
}
