package sftp_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/charlesng35/sftpdrive/internal/sftp"
	"github.com/charlesng35/sftpdrive/internal/sftp/sftptest"
)

func generateKey(t *testing.T, passphrase string) ([]byte, gossh.PublicKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase != "" {
		block, err = gossh.MarshalPrivateKeyWithPassphrase(priv, "", []byte(passphrase))
	} else {
		block, err = gossh.MarshalPrivateKey(priv, "")
	}
	require.NoError(t, err)

	sshPub, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)
	return pem.EncodeToMemory(block), sshPub
}

func TestOptionsAddress(t *testing.T) {
	require.Equal(t, "files.internal:22", sftp.Options{Host: "files.internal"}.Address())
	require.Equal(t, "files.internal:2222", sftp.Options{Host: "files.internal", Port: 2222}.Address())
	require.Equal(t, "[::1]:22", sftp.Options{Host: "::1"}.Address())
}

func TestBuildClientConfigPassword(t *testing.T) {
	cfg, err := sftp.BuildClientConfig(sftp.Options{Username: "deploy", Password: "secret", Timeout: 3 * time.Second})
	require.NoError(t, err)
	require.Equal(t, "deploy", cfg.User)
	require.Len(t, cfg.Auth, 1)
	require.Equal(t, 3*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.HostKeyCallback)
}

func TestBuildClientConfigPrivateKey(t *testing.T) {
	key, _ := generateKey(t, "")
	cfg, err := sftp.BuildClientConfig(sftp.Options{Username: "deploy", PrivateKey: key, Password: "fallback"})
	require.NoError(t, err)
	require.Len(t, cfg.Auth, 2)

	encrypted, _ := generateKey(t, "hunter2")
	_, err = sftp.BuildClientConfig(sftp.Options{Username: "deploy", PrivateKey: encrypted, Passphrase: "hunter2"})
	require.NoError(t, err)

	_, err = sftp.BuildClientConfig(sftp.Options{Username: "deploy", PrivateKey: encrypted, Passphrase: "wrong"})
	require.ErrorContains(t, err, "parse private key")
}

func TestBuildClientConfigErrors(t *testing.T) {
	cases := map[string]struct {
		opts sftp.Options
		want string
	}{
		"missing username": {sftp.Options{Password: "secret"}, "username is required"},
		"no auth":          {sftp.Options{Username: "deploy"}, "no authentication methods"},
		"bad key":          {sftp.Options{Username: "deploy", PrivateKey: []byte("not a key")}, "parse private key"},
		"missing known hosts": {
			sftp.Options{Username: "deploy", Password: "secret", KnownHostsFile: filepath.Join(t.TempDir(), "absent")},
			"load known hosts",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sftp.BuildClientConfig(tc.opts)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestSSHDialerRequiresHost(t *testing.T) {
	_, err := sftp.NewSSHDialer().Dial(context.Background(), sftp.Options{Host: "  ", Username: "deploy", Password: "x"})
	require.ErrorContains(t, err, "host is required")
}

func TestSSHDialerPasswordSession(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "deploy", Password: "secret"})

	session, err := sftp.NewSSHDialer().Dial(context.Background(), sftp.Options{
		Host:     server.Host,
		Port:     server.Port,
		Username: "deploy",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)

	_, err = session.Getwd()
	require.NoError(t, err)

	require.NoError(t, session.MkdirAll("/uploads"))
	w, err := session.Create("/uploads/note.txt")
	require.NoError(t, err)
	_, err = io.Copy(w, strings.NewReader("over ssh"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := session.Open("/uploads/note.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, "over ssh", string(data))

	_, err = session.Stat("/uploads/missing.txt")
	require.True(t, sftp.IsNotExist(err))

	first := session.Close()
	require.Equal(t, first, session.Close())
}

func TestSSHDialerPublicKeySession(t *testing.T) {
	key, pub := generateKey(t, "")
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "deploy", AuthorizedKey: pub})

	session, err := sftp.NewSSHDialer().Dial(context.Background(), sftp.Options{
		Host:       server.Host,
		Port:       server.Port,
		Username:   "deploy",
		PrivateKey: key,
	})
	require.NoError(t, err)
	_ = session.Close()
}

func TestSSHDialerRejectsBadCredentials(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "deploy", Password: "secret"})

	_, err := sftp.NewSSHDialer().Dial(context.Background(), sftp.Options{
		Host:     server.Host,
		Port:     server.Port,
		Username: "deploy",
		Password: "wrong",
	})
	require.ErrorContains(t, err, "client handshake")
}

func TestSSHDialerVerifiesKnownHosts(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "deploy", Password: "secret"})
	dir := t.TempDir()

	trusted := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(server.Address())}, server.HostKey)
	require.NoError(t, os.WriteFile(trusted, []byte(line+"\n"), 0o600))

	opts := sftp.Options{
		Host:           server.Host,
		Port:           server.Port,
		Username:       "deploy",
		Password:       "secret",
		KnownHostsFile: trusted,
	}
	session, err := sftp.NewSSHDialer().Dial(context.Background(), opts)
	require.NoError(t, err)
	_ = session.Close()

	_, otherKey := generateKey(t, "")
	untrusted := filepath.Join(dir, "known_hosts_other")
	line = knownhosts.Line([]string{knownhosts.Normalize(server.Address())}, otherKey)
	require.NoError(t, os.WriteFile(untrusted, []byte(line+"\n"), 0o600))

	opts.KnownHostsFile = untrusted
	_, err = sftp.NewSSHDialer().Dial(context.Background(), opts)
	require.ErrorContains(t, err, "client handshake")
}

func TestSSHDialerUnreachableHost(t *testing.T) {
	server := sftptest.StartSSHServer(t, sftptest.Credentials{Username: "deploy", Password: "secret"})
	server.Close()

	_, err := sftp.NewSSHDialer().Dial(context.Background(), sftp.Options{
		Host:     server.Host,
		Port:     server.Port,
		Username: "deploy",
		Password: "secret",
		Timeout:  time.Second,
	})
	require.ErrorContains(t, err, "sftp: dial")
}
