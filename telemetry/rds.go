// This connector is pulled from the teacher's database/github.go with very
// few modifications: https://github.com/califlower/golang-aws-rds-iam-postgres
package telemetry

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/external"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/aws/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"

	"github.com/nullkiller/aicore/config"
)

// rds is a database/sql/driver.Connector that authenticates to Postgres
// with an AWS IAM token instead of a static password, so turn telemetry can
// be persisted against a locked-down RDS instance.
type rds struct {
	dsn config.Profile
}

// connect opens a sqlx.DB against dsn using IAM auth, pinging once before
// returning so a misconfigured deployment fails at startup, not at the
// first recorded task.
func connect(dsn config.Profile) (*sqlx.DB, error) {
	conn := sql.OpenDB(&rds{dsn: dsn})
	conn.SetMaxOpenConns(20)
	if err := conn.Ping(); err != nil {
		return nil, xerrors.Errorf("telemetry: could not ping rds: %w", err)
	}
	return sqlx.NewDb(conn, "pgx"), nil
}

// connectionTimeout bounds how long an IAM token request is allowed to
// hang; without it a network partition to STS can stall a turn's telemetry
// write indefinitely.
const connectionTimeout = 5000 * time.Millisecond

func getAuthToken(region, cname, port, user, arn string) (string, error) {
	cfg, err := external.LoadDefaultAWSConfig()
	if err != nil {
		return "", xerrors.Errorf("telemetry: could not connect to rds using iam auth: %w", err)
	}

	cfg.Region = region
	credProvider := stscreds.NewAssumeRoleProvider(sts.New(cfg), arn)
	signer := v4.NewSigner(credProvider)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	authToken, err := rdsutils.BuildAuthToken(ctx, fmt.Sprintf("%s:%s", cname, port), region, user, signer)
	return authToken, err
}

func (r *rds) Connect(ctx context.Context) (driver.Conn, error) {
	connectionString, err := r.connectionString()
	if err != nil {
		return nil, xerrors.Errorf("telemetry: could not get connection string: %w", err)
	}

	pgxConnector := &stdlib.Driver{}
	connector, err := pgxConnector.OpenConnector(connectionString)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

func (r *rds) Driver() driver.Driver { return r }

func (r *rds) Open(name string) (driver.Conn, error) {
	return nil, xerrors.New("telemetry: driver open method unsupported")
}

func (r *rds) connectionString() (string, error) {
	cnameUntrimmed, err := net.LookupCNAME(r.dsn.TelemetryDSN.RdsHost)
	if err != nil {
		return "", xerrors.Errorf("telemetry: could not lookup cname during iam auth: %w", err)
	}

	cname := strings.TrimRight(cnameUntrimmed, ".")
	region, err := regionFromCname(cname)
	if err != nil {
		return "", err
	}

	authToken, err := getAuthToken(region, cname, r.dsn.TelemetryDSN.RdsPort, r.dsn.TelemetryDSN.RdsUser, r.dsn.TelemetryDSN.AwsRole)
	if err != nil {
		return "", xerrors.Errorf("telemetry: could not build auth token: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "user=%s dbname=%s sslmode=require port=%s host=%s password=%s",
		r.dsn.TelemetryDSN.RdsUser, r.dsn.TelemetryDSN.RdsName, r.dsn.TelemetryDSN.RdsPort, cname, authToken)
	return sb.String(), nil
}

// regionFromCname extracts the AWS region out of an RDS endpoint's
// 6-component dotted name (e.g. mydb.cxxxxx.us-west-2.rds.amazonaws.com).
func regionFromCname(cname string) (string, error) {
	parts := strings.Split(cname, ".")
	if len(parts) != 6 {
		return "", xerrors.Errorf("telemetry: cname not in AWS RDS format: %q", cname)
	}
	return parts[2], nil
}
