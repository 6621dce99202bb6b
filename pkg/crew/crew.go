package crew

import (
	"context"
	"fmt"

	"marketbot/pkg/agent"
	"marketbot/pkg/agent/llm"
	"marketbot/pkg/agent/middleware/metrics"
	"marketbot/pkg/agent/toolloop"
	"marketbot/pkg/artifact"
	"marketbot/pkg/config"
	"marketbot/pkg/contextmgr"
	"marketbot/pkg/logx"
	"marketbot/pkg/tools"
)

// maxTaskIterations caps tool rounds per task, matching the iteration
// allowance the agents were tuned for.
const maxTaskIterations = 25

// Crew is one ordered composition of tasks and the agents they reference.
type Crew struct {
	Agents []Agent
	Tasks  []Task
}

// New builds a crew and enforces the membership invariant: every task's
// agent must be listed in the crew's agents.
func New(agents []Agent, tasks []Task) (*Crew, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("crew requires at least one task")
	}
	members := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		members[a.Name] = struct{}{}
	}
	for i := range tasks {
		if _, ok := members[tasks[i].Agent.Name]; !ok {
			return nil, fmt.Errorf("task %d references agent %q which is not a crew member",
				i, tasks[i].Agent.Name)
		}
	}
	return &Crew{Agents: agents, Tasks: tasks}, nil
}

// ClientFactory creates the LLM client for one agent's tool loop. Tests
// substitute a mock here.
type ClientFactory func(cfg config.LLMConfig, labels metrics.Labels) (llm.LLMClient, error)

// Runner executes crews task by task, handing each task the outputs of the
// tasks before it.
type Runner struct {
	cfg       *config.Config
	logger    *logx.Logger
	newClient ClientFactory
	recorder  metrics.Recorder
}

// NewRunner creates a runner using the production client factory and the
// process-wide Prometheus recorder.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logx.NewLogger("crew"),
		newClient: func(llmCfg config.LLMConfig, labels metrics.Labels) (llm.LLMClient, error) {
			return agent.NewClientWithMiddleware(llmCfg, labels, metrics.Default(),
				logx.NewLogger("llm"))
		},
		recorder: metrics.Default(),
	}
}

// NewRunnerWithFactory creates a runner with a custom LLM client factory.
func NewRunnerWithFactory(cfg *config.Config, factory ClientFactory) *Runner {
	return &Runner{
		cfg:       cfg,
		logger:    logx.NewLogger("crew"),
		newClient: factory,
		recorder:  metrics.Nop(),
	}
}

// Kickoff runs the crew's tasks in order and returns the final task output.
// Any task failure aborts the run and surfaces the error.
func (r *Runner) Kickoff(ctx context.Context, c *Crew, pipeline string, store *artifact.Store) (string, error) {
	agentCtx := tools.AgentContext{Config: r.cfg, Store: store}

	var lastOutput string
	var priorOutputs []string

	for i := range c.Tasks {
		task := &c.Tasks[i]
		r.logger.Info("task %d/%d: agent=%s", i+1, len(c.Tasks), task.Agent.Name)

		client, err := r.newClient(r.cfg.LLM, metrics.Labels{
			Pipeline: pipeline,
			Agent:    task.Agent.Name,
		})
		if err != nil {
			return "", fmt.Errorf("creating LLM client for agent %s: %w", task.Agent.Name, err)
		}

		provider := tools.NewProvider(agentCtx, task.Agent.Tools)

		cm := contextmgr.New()
		cm.AddSystemMessage(task.Agent.SystemPrompt())

		loop := toolloop.New(client, r.logger)
		output, err := loop.Run(ctx, &toolloop.Config{
			ContextManager: cm,
			ToolProvider:   provider,
			InitialPrompt:  taskPrompt(task, priorOutputs),
			MaxIterations:  maxTaskIterations,
			MaxTokens:      r.cfg.LLM.MaxTokens,
			Temperature:    task.Agent.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("task %d (agent %s) failed: %w", i+1, task.Agent.Name, err)
		}

		priorOutputs = append(priorOutputs, fmt.Sprintf("[%s]\n%s", task.Agent.Role, output))
		lastOutput = output
	}

	return lastOutput, nil
}

// taskPrompt renders the task for the agent, including the outputs of
// earlier tasks in the crew.
func taskPrompt(task *Task, priorOutputs []string) string {
	prompt := task.Description + "\n\nExpected output: " + task.ExpectedOutput
	if len(priorOutputs) > 0 {
		prompt += "\n\nContext from previous tasks:"
		for _, out := range priorOutputs {
			prompt += "\n\n" + out
		}
	}
	return prompt
}
