package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"github.com/xcono/relfilter/schema"
	"github.com/xcono/relfilter/web"
	"github.com/xcono/relfilter/web/database"
	"github.com/xcono/relfilter/web/query"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	// database drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

func loadConfig(cmd *cli.Context) schema.Config {
	var c schema.Config
	conf.MustLoad(cmd.String("config"), &c)
	logx.MustSetup(c.Log)
	return c
}

func main() {
	app := &cli.App{
		Name:  "relfilter",
		Usage: "Relation-aware query string filters over SQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Value:   "config.yaml",
				Usage:   "the config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start serving service",
				ArgsUsage: "[service]",
				Action: func(cmd *cli.Context) error {
					c := loadConfig(cmd)
					return web.StartServer(c, cmd.Args().Get(0)) //blocking call
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the columns of the service tables",
				ArgsUsage: "[service]",
				Action: func(cmd *cli.Context) error {
					c := loadConfig(cmd)

					serviceConfig, err := web.SelectService(c, cmd.Args().Get(0))
					if err != nil {
						return err
					}

					tablenames := make([]string, 0, len(serviceConfig.Schemas))
					for name, s := range serviceConfig.Schemas {
						tablenames = append(tablenames, s.TableName(name))
					}
					sort.Strings(tablenames)

					db, driver, err := schema.OpenDB(serviceConfig.DSN)
					if err != nil {
						return err
					}
					defer db.Close()

					inspector, err := schema.NewDatabase(driver, db)
					if err != nil {
						return err
					}

					tables, err := inspector.Tables(context.Background(), tablenames...)
					if err != nil {
						return err
					}

					// pretty print tables as json
					jsonData, err := json.MarshalIndent(tables, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(jsonData))

					return nil
				},
			},
			{
				Name:      "explain",
				Usage:     "Print the SQL compiled from a filter query string",
				ArgsUsage: "<service> <entity> <query>",
				Action: func(cmd *cli.Context) error {
					if cmd.Args().Len() != 3 {
						return cli.ShowSubcommandHelp(cmd)
					}
					c := loadConfig(cmd)

					serviceConfig, err := web.SelectService(c, cmd.Args().Get(0))
					if err != nil {
						return err
					}

					params, err := url.ParseQuery(cmd.Args().Get(2))
					if err != nil {
						return fmt.Errorf("invalid query: %w", err)
					}

					svc, err := web.OpenService(context.Background(), serviceConfig)
					if err != nil {
						return err
					}
					defer svc.DB.Close()

					executor := query.NewExecutor(database.NewExecutor(svc.DB), svc.Catalog, schema.Flavor(svc.Driver))
					sql, args, err := executor.Build(cmd.Args().Get(1), params)
					if err != nil {
						return err
					}

					fmt.Println(sql)
					fmt.Println(args...)
					return nil
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		logx.Error(err)
		os.Exit(1)
	}
}
