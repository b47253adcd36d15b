// Package main generates a development CA and a server certificate signed by
// it, writing them under the "certs" directory. Point TLS_CERT and TLS_KEY at
// the server pair and give the CA to clients with -ca.
//
// Passing -ca and -ca-key reuses an existing CA instead of creating one, so
// clients that already trust it keep working after the server pair is rotated.
package main

import (
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atinyakov/catsapi/internal/certgen"
)

// options are the tool's command-line settings.
type options struct {
	dir       string
	hosts     []string
	caCertPath string
	caKeyPath  string
}

func main() {
	var (
		opts  options
		hosts string
	)
	flag.StringVar(&opts.dir, "dir", "certs", "output directory")
	flag.StringVar(&hosts, "hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.StringVar(&opts.caCertPath, "ca", "", "existing CA certificate to sign with (requires -ca-key)")
	flag.StringVar(&opts.caKeyPath, "ca-key", "", "existing CA private key")
	flag.Parse()
	opts.hosts = strings.Split(hosts, ",")

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	caCert, caKey, err := loadOrCreateCA(opts)
	if err != nil {
		return err
	}

	serverPair, err := certgen.GenerateServerCertificate(opts.hosts, caCert, caKey, 365*24*time.Hour)
	if err != nil {
		return err
	}
	certPath, keyPath, err := certgen.WriteKeyPair(opts.dir, "server", serverPair)
	if err != nil {
		return err
	}

	fmt.Printf("Certificates generated into %s\n", opts.dir)
	fmt.Printf("TLS_CERT=%s TLS_KEY=%s\n", certPath, keyPath)
	return nil
}

// loadOrCreateCA loads the CA named by -ca/-ca-key, or creates a new one and
// writes it to the output directory.
func loadOrCreateCA(opts options) (*x509.Certificate, any, error) {
	switch {
	case opts.caCertPath != "" && opts.caKeyPath != "":
		return certgen.LoadCACredentials(opts.caCertPath, opts.caKeyPath)
	case opts.caCertPath != "" || opts.caKeyPath != "":
		return nil, nil, errors.New("-ca and -ca-key must be given together")
	}

	caCert, caKey, caPair, err := certgen.GenerateCA("Cats API Dev CA", 10*365*24*time.Hour)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := certgen.WriteKeyPair(opts.dir, "ca", caPair); err != nil {
		return nil, nil, err
	}
	return caCert, caKey, nil
}
