package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL,
				variables JSONB,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);

			CREATE TABLE workflow_nodes (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				block_type VARCHAR(50) NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				config JSONB DEFAULT '{}',
				enabled BOOLEAN NOT NULL DEFAULT true,
				position_x INT DEFAULT 0,
				position_y INT DEFAULT 0,
				ordinal INT NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, id)
			);

			CREATE TABLE workflow_edges (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id VARCHAR(255) NOT NULL,
				source_node VARCHAR(255) NOT NULL,
				target_node VARCHAR(255) NOT NULL,
				ordinal INT NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_edges_source ON workflow_edges(workflow_id, source_node);
			CREATE INDEX idx_workflow_edges_target ON workflow_edges(workflow_id, target_node);
		`,
		2: `
			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				user_id VARCHAR(255),
				status VARCHAR(50) NOT NULL,
				trigger_data JSONB,
				result JSONB,
				error TEXT NOT NULL DEFAULT '',
				authorization_data JSONB,
				pause_requested BOOLEAN NOT NULL DEFAULT false,
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_executions_workflow ON workflow_executions(workflow_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);

			CREATE TABLE node_executions (
				execution_id UUID NOT NULL REFERENCES workflow_executions(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				output JSONB,
				error TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (execution_id, node_id)
			);

			CREATE TABLE execution_logs (
				id BIGSERIAL PRIMARY KEY,
				execution_id UUID NOT NULL,
				node_id VARCHAR(255) NOT NULL DEFAULT '',
				level VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_execution_logs_execution ON execution_logs(execution_id);
		`,
		3: `
			CREATE TABLE schedules (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				cron_expression VARCHAR(255) NOT NULL,
				next_due_at TIMESTAMP WITH TIME ZONE,
				active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_schedules_next_due_at ON schedules(active, next_due_at);
		`,
	}
}
