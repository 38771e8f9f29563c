// Package reporttest provides a small fixed report for tests.
package reporttest

import "github.com/dgallion1/prism/internal/report"

// Sample returns a fresh three-chapter report covering every block kind.
//
// Layout:
//
//	ch1 模型竞赛
//	  发布时间线      table(时间,模型,关键信息), note
//	  核心数据        stats
//	ch2 资本与投资
//	  融资事件        table(时间,A,B,C,D)
//	  趋势            trends, cards
//	ch3 协议标准
//	  MCP 生态        note, diagram, table(公司,时间,模型,关键信息,detail)
func Sample() *report.Document {
	return &report.Document{
		Title: "AI 行业全景",
		Chapters: []report.Chapter{
			{
				ID:    "ch1",
				Title: "模型竞赛",
				Sections: []report.Section{
					{
						Title: "发布时间线",
						Content: []report.Block{
							&report.Table{
								Subtitle: "2025 主要发布",
								Headers:  []string{"时间", "模型", "关键信息"},
								Rows: [][]string{
									{"2025-01", "DeepSeek-V3", "⟦MoE⟧ 架构，训练成本约 $558 万"},
									{"2025-02", "Claude 3.7", "混合推理"},
								},
							},
							&report.Note{Text: "R1 发布后引发 ⟦GRPO⟧ 讨论"},
						},
					},
					{
						Title: "核心数据",
						Content: []report.Block{
							&report.Stats{Items: []report.StatItem{
								{Value: "8-9 亿", Label: "ChatGPT 周活跃用户", Color: "orange"},
								{Value: "10,000+", Label: "MCP 活跃服务器"},
							}},
						},
					},
				},
			},
			{
				ID:    "ch2",
				Title: "资本与投资",
				Sections: []report.Section{
					{
						Title: "融资事件",
						Content: []report.Block{
							&report.Table{
								Headers: []string{"时间", "OpenAI", "Anthropic", "xAI", "Mistral"},
								Rows: [][]string{
									{"2025-Q1", "400 亿$", "35 亿$", "—", "-"},
								},
							},
						},
					},
					{
						Title: "趋势",
						Content: []report.Block{
							&report.Trends{Items: []report.TrendItem{
								{Num: "01", Title: "推理模型普及", Description: "DeepSeek 带动开源推理"},
							}},
							&report.Cards{Items: []report.CardItem{
								{Title: "Stargate", Text: "5000 亿$ 超算基建"},
							}},
						},
					},
				},
			},
			{
				ID:    "ch3",
				Title: "协议标准",
				Sections: []report.Section{
					{
						Title: "MCP 生态",
						Content: []report.Block{
							&report.Note{Text: "MCP 月下载 9700 万+"},
							&report.Diagram{Text: "Client -> MCP Server -> Tool"},
							&report.Table{
								Headers: []string{"公司", "时间", "模型", "关键信息", "detail"},
								Rows: [][]string{
									{"DeepSeek", "2025-01", "R1", "开源推理", "core"},
									{"Anthropic", "2024-11", "MCP", "协议发布", "deep"},
								},
							},
						},
					},
				},
			},
		},
		Glossary: report.Glossary{
			"MoE":  "混合专家模型，稀疏激活参数提升效率",
			"GRPO": "DeepSeek 首创的无评论者强化学习算法",
		},
	}
}
