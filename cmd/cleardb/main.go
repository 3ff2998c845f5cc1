package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"pagebuilder-go-server/bootstrap"
	"pagebuilder-go-server/domain/entity"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	// 命令行参数
	force := flag.Bool("force", false, "跳过确认提示，强制执行清库")
	truncate := flag.Bool("truncate", false, "使用 TRUNCATE（更快，会重置自增ID）")
	tables := flag.String("tables", "", "指定要清空的表，逗号分隔（例如: pages,users）；留空表示清空所有表")
	flag.Parse()

	env := bootstrap.LoadEnv()
	logger, err := bootstrap.NewLogger(env.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if env.DatabaseURL == "" {
		logger.Fatal("❌ DATABASE_URL 环境变量未设置")
	}

	// 连接数据库
	db, err := bootstrap.NewDatabase(env.DBDriver, env.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("❌ 数据库连接失败", zap.Error(err))
	}

	known, err := knownTables(db)
	if err != nil {
		logger.Fatal("❌ 解析表结构失败", zap.Error(err))
	}
	targetTables, err := selectTables(known, *tables)
	if err != nil {
		logger.Fatal("❌ 参数无效", zap.Error(err))
	}

	// 确认提示
	if !*force && !confirm(os.Stdin, os.Stdout, targetTables) {
		fmt.Println("❌ 操作已取消")
		return
	}

	fmt.Println("\n🚀 开始清库...")
	for _, tableName := range targetTables {
		sql := clearStatement(env.DBDriver, *truncate)
		if err := db.Exec(sql, clause.Table{Name: tableName}).Error; err != nil {
			logger.Error("❌ 清空表失败", zap.String("table", tableName), zap.Error(err))
			continue
		}
		logger.Info("✅ 已清空表", zap.String("table", tableName))
	}

	fmt.Println("\n🎉 清库操作完成！")
}

// knownTables 返回所有可清空的表名（由 GORM 命名策略解析）
// 注意：顺序很重要！先删除依赖方（pages），再删除被依赖方（users）
func knownTables(db *gorm.DB) ([]string, error) {
	models := []any{&entity.Page{}, &entity.User{}}
	names := make([]string, 0, len(models))
	for _, m := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		names = append(names, stmt.Schema.Table)
	}
	return names, nil
}

// selectTables 解析命令行指定的表名，只允许已知的表
func selectTables(known []string, input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return known, nil
	}

	allowed := make(map[string]bool, len(known))
	for _, t := range known {
		allowed[t] = true
	}

	var tables []string
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !allowed[p] {
			return nil, fmt.Errorf("unknown table %q (known: %s)", p, strings.Join(known, ", "))
		}
		tables = append(tables, p)
	}
	return tables, nil
}

// clearStatement TRUNCATE 更快，会重置自增ID；DELETE 可以触发触发器，但较慢
func clearStatement(driver string, truncate bool) string {
	if !truncate {
		return "DELETE FROM ?"
	}
	if driver == "mysql" {
		return "TRUNCATE TABLE ?"
	}
	// CASCADE 处理外键约束
	return "TRUNCATE TABLE ? RESTART IDENTITY CASCADE"
}

func confirm(in io.Reader, out io.Writer, tables []string) bool {
	fmt.Fprintln(out, "⚠️  警告：此操作将删除数据库中的数据！")
	fmt.Fprintln(out, "📊 受影响的表：")
	for _, t := range tables {
		fmt.Fprintf(out, "   - %s\n", t)
	}

	fmt.Fprint(out, "\n确认执行清库操作？(yes/no): ")
	input, _ := bufio.NewReader(in).ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "yes" || input == "y"
}
