// Deployer — запуск сценариев развёртывания (flows) на удалённых хостах по SSH.
//
// Использование:
//
//	deployer [--config FILE] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	connection  Проверка соединения с сервером
//	exec        Выполнение команды на сервере
//	flow        Просмотр и запуск flows
//	package     Работа с пакетами в локальном кэше
//	run         История запусков
//	progress    Поток событий прогресса из RabbitMQ
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/Deployer/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.NewRootCmd(version).ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
